// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/sensorboard/internal/models"
)

var sensorColumns = []string{"id", "device_id", "name", "label", "type", "unit", "scale_factor", "created_at"}

func scanSensor(s interface{ Scan(...interface{}) error }) (models.Sensor, error) {
	var sn models.Sensor
	var typ string
	err := s.Scan(&sn.ID, &sn.DeviceID, &sn.Name, &sn.Label, &typ, &sn.Unit, &sn.ScaleFactor, &sn.CreatedAt)
	sn.Type = models.SensorType(typ)
	return sn, err
}

// CreateSensor registers a hardware sensor id on a device. A zero scale
// factor is stored as 1.
func (db *DB) CreateSensor(ctx context.Context, deviceID string, in models.SensorInput) (*models.Sensor, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("sensor id is required")
	}
	if _, err := db.GetDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	if _, err := db.GetSensor(ctx, in.ID); err == nil {
		return nil, fmt.Errorf("sensor %s already exists: %w", in.ID, ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	s := &models.Sensor{
		ID:          in.ID,
		DeviceID:    deviceID,
		Name:        in.Name,
		Label:       in.Label,
		Type:        in.Type,
		Unit:        in.Unit,
		ScaleFactor: scaleFactorOrDefault(in.ScaleFactor),
		CreatedAt:   db.now(),
	}
	_, err := exec(ctx, db.conn, "sensors", psql.Insert("sensors").
		Columns(sensorColumns...).
		Values(s.ID, s.DeviceID, s.Name, s.Label, string(s.Type), s.Unit, s.ScaleFactor, s.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create sensor: %w", err)
	}
	return s, nil
}

func scaleFactorOrDefault(f float64) float64 {
	if f == 0 {
		return 1
	}
	return f
}

// GetSensor returns ErrNotFound for an unknown id.
func (db *DB) GetSensor(ctx context.Context, id string) (*models.Sensor, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query, args, err := psql.Select(sensorColumns...).From("sensors").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	s, err := scanSensor(db.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sensor %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sensor: %w", err)
	}
	return &s, nil
}

// ListSensors returns the sensors of one device.
func (db *DB) ListSensors(ctx context.Context, deviceID string) ([]models.Sensor, error) {
	return db.selectSensors(ctx, sq.Eq{"device_id": deviceID})
}

// SensorsByID loads the given sensors keyed by id. Unknown ids are absent
// from the map.
func (db *DB) SensorsByID(ctx context.Context, ids []string) (map[string]models.Sensor, error) {
	out := make(map[string]models.Sensor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	sensors, err := db.selectSensors(ctx, sq.Eq{"id": ids})
	if err != nil {
		return nil, err
	}
	for _, s := range sensors {
		out[s.ID] = s
	}
	return out, nil
}

func (db *DB) selectSensors(ctx context.Context, where sq.Sqlizer) ([]models.Sensor, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.queryRows(ctx, "sensors", psql.Select(sensorColumns...).From("sensors").Where(where).OrderBy("name", "id"))
	if err != nil {
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}
	defer rows.Close()

	sensors := []models.Sensor{}
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensor: %w", err)
		}
		sensors = append(sensors, s)
	}
	return sensors, rows.Err()
}

// UpdateSensor changes the descriptive fields of a sensor. The id and the
// owning device are immutable.
func (db *DB) UpdateSensor(ctx context.Context, id string, in models.SensorInput) (*models.Sensor, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	n, err := exec(ctx, db.conn, "sensors", psql.Update("sensors").SetMap(map[string]interface{}{
		"name":         in.Name,
		"label":        in.Label,
		"type":         string(in.Type),
		"unit":         in.Unit,
		"scale_factor": scaleFactorOrDefault(in.ScaleFactor),
	}).Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("failed to update sensor: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("sensor %s: %w", id, ErrNotFound)
	}
	return db.GetSensor(ctx, id)
}

// DeleteSensor removes a sensor and its samples.
func (db *DB) DeleteSensor(ctx context.Context, id string) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = exec(ctx, tx, "samples", psql.Delete("samples").Where(sq.Eq{"sensor_id": id})); err != nil {
		return fmt.Errorf("failed to delete samples: %w", err)
	}
	n, err := exec(ctx, tx, "sensors", psql.Delete("sensors").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete sensor: %w", err)
	}
	if n == 0 {
		err = fmt.Errorf("sensor %s: %w", id, ErrNotFound)
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// LookupSensorDetails joins sensors with their device and house. Ids
// without a registered sensor are absent from the result.
func (db *DB) LookupSensorDetails(ctx context.Context, ids []string) (map[string]models.SensorDetails, error) {
	out := make(map[string]models.SensorDetails, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	b := psql.Select(
		"s.id", "s.device_id", "s.name", "s.label", "s.type", "s.unit", "s.scale_factor", "s.created_at",
		"d.id", "d.house_id", "d.name", "d.active", "d.last_ping", "d.created_at",
		"h.id", "h.name", "h.created_at",
	).From("sensors s").
		Join("devices d ON d.id = s.device_id").
		Join("houses h ON h.id = d.house_id").
		Where(sq.Eq{"s.id": ids})

	rows, err := db.queryRows(ctx, "sensors", b)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sensors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var det models.SensorDetails
		var typ string
		var lastPing sql.NullTime
		s, d, h := &det.Sensor, &det.Device, &det.House
		if err := rows.Scan(
			&s.ID, &s.DeviceID, &s.Name, &s.Label, &typ, &s.Unit, &s.ScaleFactor, &s.CreatedAt,
			&d.ID, &d.HouseID, &d.Name, &d.Active, &lastPing, &d.CreatedAt,
			&h.ID, &h.Name, &h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sensor details: %w", err)
		}
		s.Type = models.SensorType(typ)
		if lastPing.Valid {
			t := lastPing.Time.UTC()
			d.LastPing = &t
		}
		out[s.ID] = det
	}
	return out, rows.Err()
}
