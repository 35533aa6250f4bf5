// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package query

import (
	"fmt"
	"time"

	"github.com/tomtom215/sensorboard/internal/database"
	"github.com/tomtom215/sensorboard/internal/models"
)

// maxFilledBuckets bounds addMissingTimeSeries for very wide ranges.
const maxFilledBuckets = 100_000

// TruncateTime returns the start of the UTC bucket containing t. Weeks
// start on Monday.
func TruncateTime(t time.Time, g models.Grouping) time.Time {
	t = t.UTC()
	switch g {
	case models.GroupByHour:
		return t.Truncate(time.Hour)
	case models.GroupByDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case models.GroupByWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		// Sunday is 0; shift so Monday is the first day.
		back := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -back)
	case models.GroupByMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case models.GroupByYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// AddPeriods moves t by n buckets of size g.
func AddPeriods(t time.Time, g models.Grouping, n int) time.Time {
	switch g {
	case models.GroupByHour:
		return t.Add(time.Duration(n) * time.Hour)
	case models.GroupByDay:
		return t.AddDate(0, 0, n)
	case models.GroupByWeek:
		return t.AddDate(0, 0, 7*n)
	case models.GroupByMonth:
		return t.AddDate(0, n, 0)
	case models.GroupByYear:
		return t.AddDate(n, 0, 0)
	default:
		return t
	}
}

// OffsetRange returns [start, end) of the period that lies offset periods
// before the one containing now.
func OffsetRange(now time.Time, period models.Grouping, offset int) (time.Time, time.Time, error) {
	if !period.Valid() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: period %q", ErrInvalidQuery, period)
	}
	if offset < 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: negative offset", ErrInvalidQuery)
	}
	start := AddPeriods(TruncateTime(now, period), period, -offset)
	return start, AddPeriods(start, period, 1), nil
}

// addMissingTimeSeries returns rows with a zero-valued bucket inserted for
// every bucket of [start, end) that has no data. rows must be ordered by
// bucket.
func addMissingTimeSeries(sensorID string, rows []database.BucketValue, start, end time.Time, g models.Grouping) []database.BucketValue {
	present := make(map[int64]database.BucketValue, len(rows))
	for _, r := range rows {
		present[r.Bucket.Unix()] = r
	}

	filled := make([]database.BucketValue, 0, len(rows))
	for t := TruncateTime(start, g); t.Before(end) && len(filled) < maxFilledBuckets; t = AddPeriods(t, g, 1) {
		if r, ok := present[t.Unix()]; ok {
			filled = append(filled, r)
			continue
		}
		filled = append(filled, database.BucketValue{SensorID: sensorID, Bucket: t})
	}
	return filled
}
