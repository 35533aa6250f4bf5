// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/models"
)

// InsertSamples stores a batch of readings in one transaction.
func (db *DB) InsertSamples(ctx context.Context, samples []models.Sample) (err error) {
	if len(samples) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO samples (sensor_id, ts, value) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err = stmt.ExecContext(ctx, s.SensorID, s.Timestamp.UTC(), s.Value); err != nil {
			return fmt.Errorf("failed to insert sample for %s: %w", s.SensorID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}
	return nil
}

// LatestSamples returns the newest samples of a sensor, newest first.
func (db *DB) LatestSamples(ctx context.Context, sensorID string, limit int) ([]models.Sample, error) {
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.queryRows(ctx, "samples", psql.Select("sensor_id", "ts", "value").From("samples").
		Where(sq.Eq{"sensor_id": sensorID}).
		OrderBy("ts DESC").
		Limit(uint64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
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
