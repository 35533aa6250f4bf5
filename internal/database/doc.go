// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

/*
Package database stores houses, devices, sensors, samples and power prices in
DuckDB and runs the time-series SQL behind the query engine.

Tables:
  - houses, devices, sensors: configuration, ids are strings. Sensor ids are the
    hardware ids devices report.
  - samples: (sensor_id, ts, value), one row per stored reading, ts in UTC.
  - power_prices: (date, hour, price, currency), 24 rows per date.

Referential integrity is enforced in Go rather than with foreign keys:
deleting a house or device that still has children returns ErrConflict,
deleting a sensor removes its samples.

Statements are built with squirrel using '?' placeholders. Every exported
method takes a context; when it carries no deadline the store applies its
default timeout.
*/
package database
