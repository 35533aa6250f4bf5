// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package models

import (
	"time"
)

// Grouping is a time bucket size.
type Grouping string

const (
	GroupByHour  Grouping = "hour"
	GroupByDay   Grouping = "day"
	GroupByWeek  Grouping = "week"
	GroupByMonth Grouping = "month"
	GroupByYear  Grouping = "year"
)

// Valid reports whether g is a known bucket size.
func (g Grouping) Valid() bool {
	switch g {
	case GroupByHour, GroupByDay, GroupByWeek, GroupByMonth, GroupByYear:
		return true
	}
	return false
}

// Aggregation folds the samples of one bucket into a value.
type Aggregation string

const (
	AggregateAvg   Aggregation = "avg"
	AggregateMin   Aggregation = "min"
	AggregateMax   Aggregation = "max"
	AggregateSum   Aggregation = "sum"
	AggregateCount Aggregation = "count"
)

// FormatOptions post-process query results.
type FormatOptions struct {
	// ApplyScaleFactor multiplies values by the sensor's scale factor.
	ApplyScaleFactor bool `json:"applyScaleFactor"`

	// AddMissingTimeSeries fills empty buckets with zero. Grouped queries only.
	AddMissingTimeSeries bool `json:"addMissingTimeSeries"`

	// Decimals rounds values; nil uses the server default.
	Decimals *int `json:"decimals,omitempty" validate:"omitempty,min=0,max=10"`
}

// GroupedQuery aggregates samples into buckets over [Start, End).
type GroupedQuery struct {
	SensorIDs   []string      `json:"sensorIds" validate:"required,min=1,max=50,dive,required,max=64"`
	Start       time.Time     `json:"start" validate:"required"`
	End         time.Time     `json:"end" validate:"required,gtfield=Start"`
	GroupBy     Grouping      `json:"groupBy" validate:"required,oneof=hour day week month year"`
	Aggregation Aggregation   `json:"aggregation,omitempty" validate:"omitempty,oneof=avg min max sum count"`
	Format      FormatOptions `json:"format"`
}

// UngroupedQuery returns raw samples over [Start, End).
type UngroupedQuery struct {
	SensorIDs []string      `json:"sensorIds" validate:"required,min=1,max=50,dive,required,max=64"`
	Start     time.Time     `json:"start" validate:"required"`
	End       time.Time     `json:"end" validate:"required,gtfield=Start"`
	Limit     int           `json:"limit,omitempty" validate:"omitempty,min=1,max=100000"`
	Format    FormatOptions `json:"format"`
}

// OffsetQuery is a grouped query over a calendar period relative to now.
// Offset 0 is the current period, 1 the one before, and so on.
type OffsetQuery struct {
	SensorIDs   []string      `json:"sensorIds" validate:"required,min=1,max=50,dive,required,max=64"`
	Period      Grouping      `json:"period" validate:"required,oneof=day week month year"`
	Offset      int           `json:"offset" validate:"min=0,max=1000"`
	GroupBy     Grouping      `json:"groupBy" validate:"required,oneof=hour day week month year"`
	Aggregation Aggregation   `json:"aggregation,omitempty" validate:"omitempty,oneof=avg min max sum count"`
	Format      FormatOptions `json:"format"`
}

// PowerQuery asks for the hourly power prices of the given dates
// (2006-01-02). One dataset is returned per date.
type PowerQuery struct {
	Dates    []string `json:"dates" validate:"required,min=1,max=31,dive,datetime=2006-01-02"`
	Decimals *int     `json:"decimals,omitempty" validate:"omitempty,min=0,max=10"`
}
