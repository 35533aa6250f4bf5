// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package export

import (
	"time"

	"github.com/tomtom215/sensorboard/internal/models"
)

// Output is the file format of an export.
type Output string

const (
	OutputExcel Output = "excel"
	OutputCSV   Output = "csv"
)

// QueryType selects grouped or raw sensor data.
type QueryType string

const (
	QueryGrouped   QueryType = "grouped"
	QueryUngrouped QueryType = "ungrouped"
)

// Export endpoint paths, relative to the API base URL.
const (
	sensorDataPath  = "/api/v1/export/sensordata"
	powerPricesPath = "/api/v1/export/powerprices"
)

// Options is an export request. It is implemented by SensorDataOptions and
// PowerDataOptions only.
type Options interface {
	endpoint() string
	body() interface{}
}

// SensorDataOptions exports sensor samples over [Start, End).
type SensorDataOptions struct {
	Start     time.Time
	End       time.Time
	Type      QueryType
	SensorIDs []string

	// ApplyScaleFactor is omitted from the request when nil.
	ApplyScaleFactor *bool
	GroupBy          models.Grouping
	Output           Output
}

func (o SensorDataOptions) endpoint() string { return sensorDataPath }

func (o SensorDataOptions) body() interface{} {
	out := o.Output
	if out == "" {
		out = OutputExcel
	}
	typ := o.Type
	if typ == "" {
		typ = QueryGrouped
	}
	return models.ExportSensorDataRequest{
		Start:            o.Start.UTC(),
		End:              o.End.UTC(),
		Type:             string(typ),
		SensorIDs:        o.SensorIDs,
		ApplyScaleFactor: o.ApplyScaleFactor,
		GroupBy:          o.GroupBy,
		Output:           string(out),
	}
}

// PowerDataOptions exports the hourly power prices of the given dates.
type PowerDataOptions struct {
	Dates  []time.Time
	Output Output
}

func (o PowerDataOptions) endpoint() string { return powerPricesPath }

func (o PowerDataOptions) body() interface{} {
	out := o.Output
	if out == "" {
		out = OutputExcel
	}
	dates := make([]string, len(o.Dates))
	for i, d := range o.Dates {
		dates[i] = d.Format(dateLayout)
	}
	return models.ExportPowerRequest{
		Dates:  dates,
		Type:   "power",
		Output: string(out),
	}
}

const dateLayout = "2006-01-02"
