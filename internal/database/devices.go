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
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/tomtom215/sensorboard/internal/models"
)

var deviceColumns = []string{"id", "house_id", "name", "active", "last_ping", "created_at"}

func scanDevice(s interface{ Scan(...interface{}) error }) (models.Device, error) {
	var d models.Device
	var lastPing sql.NullTime
	if err := s.Scan(&d.ID, &d.HouseID, &d.Name, &d.Active, &lastPing, &d.CreatedAt); err != nil {
		return d, err
	}
	if lastPing.Valid {
		t := lastPing.Time.UTC()
		d.LastPing = &t
	}
	return d, nil
}

// CreateDevice adds a device to an existing house.
func (db *DB) CreateDevice(ctx context.Context, houseID string, in models.DeviceInput) (*models.Device, error) {
	if _, err := db.GetHouse(ctx, houseID); err != nil {
		return nil, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	d := &models.Device{
		ID:        uuid.New().String(),
		HouseID:   houseID,
		Name:      in.Name,
		Active:    in.Active == nil || *in.Active,
		CreatedAt: db.now(),
	}
	_, err := exec(ctx, db.conn, "devices", psql.Insert("devices").
		Columns("id", "house_id", "name", "active", "created_at").
		Values(d.ID, d.HouseID, d.Name, d.Active, d.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return d, nil
}

// GetDevice returns ErrNotFound for an unknown id.
func (db *DB) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query, args, err := psql.Select(deviceColumns...).From("devices").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	d, err := scanDevice(db.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &d, nil
}

// ListDevices returns the devices of one house.
func (db *DB) ListDevices(ctx context.Context, houseID string) ([]models.Device, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.queryRows(ctx, "devices", psql.Select(deviceColumns...).From("devices").
		Where(sq.Eq{"house_id": houseID}).OrderBy("name", "id"))
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	devices := []models.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// UpdateDevice renames a device and optionally toggles it.
func (db *DB) UpdateDevice(ctx context.Context, id string, in models.DeviceInput) (*models.Device, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	b := psql.Update("devices").Set("name", in.Name).Where(sq.Eq{"id": id})
	if in.Active != nil {
		b = b.Set("active", *in.Active)
	}
	n, err := exec(ctx, db.conn, "devices", b)
	if err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	return db.GetDevice(ctx, id)
}

// DeleteDevice removes a device without sensors.
func (db *DB) DeleteDevice(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	children, err := db.count(ctx, "sensors", sq.Eq{"device_id": id})
	if err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("device %s has %d sensors: %w", id, children, ErrConflict)
	}
	n, err := exec(ctx, db.conn, "devices", psql.Delete("devices").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	return nil
}

// TouchDevice records the time a device last posted readings.
func (db *DB) TouchDevice(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	n, err := exec(ctx, db.conn, "devices", psql.Update("devices").Set("last_ping", at.UTC()).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to touch device: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	return nil
}
