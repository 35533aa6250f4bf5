// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package chart

// Config is a Chart.js chart configuration. A chart handle keeps a pointer
// to it; reloads mutate the fields in place through Handle.Update.
type Config struct {
	Type    string         `json:"type"`
	Data    ConfigData     `json:"data"`
	Options *ConfigOptions `json:"options"`
}

// ConfigData holds the x labels and the drawn datasets.
type ConfigData struct {
	Labels   []interface{}    `json:"labels"`
	Datasets []*ConfigDataset `json:"datasets"`
}

// ConfigDataset is one drawn series.
type ConfigDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor"`
	BackgroundColor string    `json:"backgroundColor"`
	PointRadius     int       `json:"pointRadius"`
	Stack           string    `json:"stack,omitempty"`
	Hidden          bool      `json:"hidden"`
}

// ConfigOptions are the chart-wide options.
type ConfigOptions struct {
	Responsive          bool    `json:"responsive"`
	MaintainAspectRatio bool    `json:"maintainAspectRatio"`
	Plugins             Plugins `json:"plugins"`
	Scales              Scales  `json:"scales"`
}

// Plugins configures Chart.js plugins.
type Plugins struct {
	Legend Legend `json:"legend"`
}

// Legend toggles the dataset legend.
type Legend struct {
	Display bool `json:"display"`
}

// Scales holds the two axes.
type Scales struct {
	X Axis `json:"x"`
	Y Axis `json:"y"`
}

// Axis configures one axis. Min and Max are nil when the chart library
// should pick the bounds.
type Axis struct {
	Type     string     `json:"type,omitempty"`
	Stacked  bool       `json:"stacked"`
	Min      *float64   `json:"min,omitempty"`
	Max      *float64   `json:"max,omitempty"`
	Time     *TimeScale `json:"time,omitempty"`
	Adapters *Adapters  `json:"adapters,omitempty"`
}

// TimeScale configures a time axis.
type TimeScale struct {
	Unit           string            `json:"unit"`
	DisplayFormats map[string]string `json:"displayFormats"`
	TooltipFormat  string            `json:"tooltipFormat"`
}

// Adapters configures the date adapter of a time axis.
type Adapters struct {
	Date DateAdapter `json:"date"`
}

// DateAdapter carries the locale and IANA zone used to display dates.
type DateAdapter struct {
	Locale string `json:"locale"`
	Zone   string `json:"zone"`
}
