// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package models

import (
	"time"
)

// TimestampLayout is the x-value format of time-series data elements.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DataElement is one sample. X is a timestamp string in TimestampLayout for
// time-series data, otherwise a category label or number.
type DataElement struct {
	X interface{} `json:"x"`
	Y float64     `json:"y"`
}

// DataSet is one named series. Every element of Data uses the same x
// semantics. Group, when set, names the stack the series belongs to.
type DataSet struct {
	ID        string        `json:"id"`
	Name      string        `json:"name,omitempty"`
	FromCache bool          `json:"fromCache"`
	Group     string        `json:"group,omitempty"`
	Data      []DataElement `json:"data"`
}

// Label is the display name: Name when set, otherwise ID.
func (d *DataSet) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// FormatTimestamp renders t as a time-series x value.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp reads a time-series x value. RFC 3339 is accepted as well.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// CloneDataSets returns deep copies so cached results can be flagged
// without touching the cached value.
func CloneDataSets(in []DataSet) []DataSet {
	out := make([]DataSet, len(in))
	for i := range in {
		out[i] = in[i]
		out[i].Data = append([]DataElement(nil), in[i].Data...)
	}
	return out
}
