// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package database

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement %q: %w", stmt, err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS houses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		house_id TEXT NOT NULL,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		last_ping TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sensors (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL,
		name TEXT NOT NULL,
		label TEXT NOT NULL,
		type TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		scale_factor DOUBLE NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS samples (
		sensor_id TEXT NOT NULL,
		ts TIMESTAMP NOT NULL,
		value DOUBLE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS power_prices (
		date DATE NOT NULL,
		hour INTEGER NOT NULL,
		price DOUBLE NOT NULL,
		currency TEXT NOT NULL DEFAULT 'DKK',
		PRIMARY KEY (date, hour)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_devices_house ON devices(house_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sensors_device ON sensors(device_id)`,
	`CREATE INDEX IF NOT EXISTS idx_samples_sensor_ts ON samples(sensor_id, ts)`,
}
