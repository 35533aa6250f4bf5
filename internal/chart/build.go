// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package chart

import (
	"math"
	"time"

	"github.com/tomtom215/sensorboard/internal/models"
)

// Time axis display settings. Formats use the luxon tokens understood by
// chartjs-adapter-luxon.
const (
	timeUnit          = "hour"
	hourDisplayFormat = "HH:mm"
	tooltipFormat     = "yyyy-MM-dd HH:mm"
)

// chartType maps a container type to the Chart.js type.
func chartType(t Type) string {
	if t == TypeStackedBar {
		return string(TypeBar)
	}
	return string(t)
}

// buildLabels derives the x labels from the first dataset. Time series
// labels are parsed as UTC and converted to loc; unparsable values are kept
// as they are. Other datasets are not re-aligned.
func buildLabels(sets []models.DataSet, timeseries bool, loc *time.Location) []interface{} {
	if len(sets) == 0 {
		return []interface{}{}
	}
	labels := make([]interface{}, 0, len(sets[0].Data))
	for _, e := range sets[0].Data {
		if !timeseries {
			labels = append(labels, e.X)
			continue
		}
		s, ok := e.X.(string)
		if !ok {
			labels = append(labels, e.X)
			continue
		}
		ts, err := models.ParseTimestamp(s)
		if err != nil {
			labels = append(labels, e.X)
			continue
		}
		labels = append(labels, ts.In(loc))
	}
	return labels
}

// buildDatasets converts datasets to their drawn form. Colours come from
// the palette by index.
func buildDatasets(sets []models.DataSet, palette Palette) []*ConfigDataset {
	out := make([]*ConfigDataset, 0, len(sets))
	for i := range sets {
		color := palette.Color(i)
		data := make([]float64, len(sets[i].Data))
		for j, e := range sets[i].Data {
			data[j] = e.Y
		}
		out = append(out, &ConfigDataset{
			Label:           sets[i].Label(),
			Data:            data,
			BorderColor:     color,
			BackgroundColor: color,
			PointRadius:     0,
			Stack:           sets[i].Group,
		})
	}
	return out
}

// buildOptions derives axis and plugin options from the container options
// and the datasets being drawn.
func buildOptions(opts *Options, sets []models.DataSet) *ConfigOptions {
	stacked := opts.Type == TypeStackedBar
	o := &ConfigOptions{
		Responsive:          true,
		MaintainAspectRatio: false,
		Plugins:             Plugins{Legend: Legend{Display: opts.Legend}},
		Scales: Scales{
			X: Axis{Stacked: stacked},
			Y: Axis{Stacked: stacked},
		},
	}

	if opts.Timeseries {
		o.Scales.X.Type = "time"
		o.Scales.X.Time = &TimeScale{
			Unit:           timeUnit,
			DisplayFormats: map[string]string{timeUnit: hourDisplayFormat},
			TooltipFormat:  tooltipFormat,
		}
		o.Scales.X.Adapters = &Adapters{Date: DateAdapter{
			Locale: opts.Locale,
			Zone:   opts.location().String(),
		}}
	}

	if opts.AdjustMinimumY != nil {
		if lo, ok := MinimumDatasetsValue(sets); ok {
			v := math.Floor(lo) + *opts.AdjustMinimumY
			o.Scales.Y.Min = &v
		}
	}
	if opts.AdjustMaximumY != nil {
		if hi, ok := MaximumDatasetsValue(sets); ok {
			v := math.Ceil(hi) + *opts.AdjustMaximumY
			o.Scales.Y.Max = &v
		}
	}
	return o
}

// BuildConfig returns a fresh chart configuration for sets.
func BuildConfig(opts *Options, sets []models.DataSet) *Config {
	return &Config{
		Type: chartType(opts.Type),
		Data: ConfigData{
			Labels:   buildLabels(sets, opts.Timeseries, opts.location()),
			Datasets: buildDatasets(sets, opts.Palette),
		},
		Options: buildOptions(opts, sets),
	}
}

// applyConfig updates cfg in place for new datasets. Hidden flags survive
// for datasets whose label is unchanged.
func applyConfig(cfg *Config, opts *Options, sets []models.DataSet) {
	hidden := make(map[string]bool, len(cfg.Data.Datasets))
	for _, d := range cfg.Data.Datasets {
		if d.Hidden {
			hidden[d.Label] = true
		}
	}

	cfg.Data.Labels = buildLabels(sets, opts.Timeseries, opts.location())
	cfg.Data.Datasets = buildDatasets(sets, opts.Palette)
	for _, d := range cfg.Data.Datasets {
		d.Hidden = hidden[d.Label]
	}
	cfg.Options = buildOptions(opts, sets)
}
