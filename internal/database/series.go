// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package database

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/sensorboard/internal/models"
)

// BucketValue is the aggregate of one sensor over one time bucket.
type BucketValue struct {
	SensorID string
	Bucket   time.Time
	Value    float64
}

// buildBucketSQL returns the truncation expression for a grouping. The unit
// is whitelisted because DATE_TRUNC does not accept a bound parameter.
func buildBucketSQL(g models.Grouping) (string, error) {
	switch g {
	case models.GroupByHour, models.GroupByDay, models.GroupByWeek, models.GroupByMonth, models.GroupByYear:
		return fmt.Sprintf("DATE_TRUNC('%s', ts)", g), nil
	default:
		return "", fmt.Errorf("invalid grouping %q: must be hour, day, week, month or year", g)
	}
}

func buildAggregateSQL(a models.Aggregation) (string, error) {
	switch a {
	case "", models.AggregateAvg:
		return "AVG(value)", nil
	case models.AggregateMin:
		return "MIN(value)", nil
	case models.AggregateMax:
		return "MAX(value)", nil
	case models.AggregateSum:
		return "SUM(value)", nil
	case models.AggregateCount:
		return "CAST(COUNT(*) AS DOUBLE)", nil
	default:
		return "", fmt.Errorf("invalid aggregation %q", a)
	}
}

// GroupedSeries aggregates samples in [start, end) into buckets, ordered by
// sensor and bucket. Empty buckets produce no row.
func (db *DB) GroupedSeries(ctx context.Context, sensorIDs []string, start, end time.Time, g models.Grouping, agg models.Aggregation) ([]BucketValue, error) {
	bucketSQL, err := buildBucketSQL(g)
	if err != nil {
		return nil, err
	}
	aggSQL, err := buildAggregateSQL(agg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	b := psql.Select("sensor_id", bucketSQL+" AS bucket", aggSQL+" AS value").
		From("samples").
		Where(sq.Eq{"sensor_id": sensorIDs}).
		Where(sq.GtOrEq{"ts": start.UTC()}).
		Where(sq.Lt{"ts": end.UTC()}).
		GroupBy("sensor_id", "bucket").
		OrderBy("sensor_id", "bucket")

	rows, err := db.queryRows(ctx, "samples", b)
	if err != nil {
		return nil, fmt.Errorf("failed to query grouped series: %w", err)
	}
	defer rows.Close()

	out := []BucketValue{}
	for rows.Next() {
		var v BucketValue
		if err := rows.Scan(&v.SensorID, &v.Bucket, &v.Value); err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		v.Bucket = v.Bucket.UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}

// RawSeries returns samples in [start, end) ordered by sensor and time. A
// positive limit caps the rows returned per sensor.
func (db *DB) RawSeries(ctx context.Context, sensorIDs []string, start, end time.Time, limit int) ([]models.Sample, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	b := psql.Select("sensor_id", "ts", "value").
		From("samples").
		Where(sq.Eq{"sensor_id": sensorIDs}).
		Where(sq.GtOrEq{"ts": start.UTC()}).
		Where(sq.Lt{"ts": end.UTC()})
	if limit > 0 {
		b = psql.Select("sensor_id", "ts", "value").
			FromSelect(b.Column("ROW_NUMBER() OVER (PARTITION BY sensor_id ORDER BY ts) AS rn"), "ranked").
			Where(sq.LtOrEq{"rn": limit})
	}
	b = b.OrderBy("sensor_id", "ts")

	rows, err := db.queryRows(ctx, "samples", b)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw series: %w", err)
	}
	defer rows.Close()

	out := []models.Sample{}
	for rows.Next() {
		var s models.Sample
		if err := rows.Scan(&s.SensorID, &s.Timestamp, &s.Value); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		s.Timestamp = s.Timestamp.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}
