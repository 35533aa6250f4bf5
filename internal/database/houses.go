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
	"github.com/google/uuid"

	"github.com/tomtom215/sensorboard/internal/models"
)

// CreateHouse inserts a house with a generated id.
func (db *DB) CreateHouse(ctx context.Context, in models.HouseInput) (*models.House, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	h := &models.House{ID: uuid.New().String(), Name: in.Name, CreatedAt: db.now()}
	_, err := exec(ctx, db.conn, "houses", psql.Insert("houses").
		Columns("id", "name", "created_at").
		Values(h.ID, h.Name, h.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create house: %w", err)
	}
	return h, nil
}

// GetHouse returns ErrNotFound for an unknown id.
func (db *DB) GetHouse(ctx context.Context, id string) (*models.House, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query, args, err := psql.Select("id", "name", "created_at").From("houses").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	var h models.House
	err = db.conn.QueryRowContext(ctx, query, args...).Scan(&h.ID, &h.Name, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("house %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get house: %w", err)
	}
	return &h, nil
}

// ListHouses returns all houses ordered by name.
func (db *DB) ListHouses(ctx context.Context) ([]models.House, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.queryRows(ctx, "houses", psql.Select("id", "name", "created_at").From("houses").OrderBy("name", "id"))
	if err != nil {
		return nil, fmt.Errorf("failed to list houses: %w", err)
	}
	defer rows.Close()

	houses := []models.House{}
	for rows.Next() {
		var h models.House
		if err := rows.Scan(&h.ID, &h.Name, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan house: %w", err)
		}
		houses = append(houses, h)
	}
	return houses, rows.Err()
}

// UpdateHouse renames a house.
func (db *DB) UpdateHouse(ctx context.Context, id string, in models.HouseInput) (*models.House, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	n, err := exec(ctx, db.conn, "houses", psql.Update("houses").Set("name", in.Name).Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("failed to update house: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("house %s: %w", id, ErrNotFound)
	}
	return db.GetHouse(ctx, id)
}

// DeleteHouse removes a house without devices.
func (db *DB) DeleteHouse(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	children, err := db.count(ctx, "devices", sq.Eq{"house_id": id})
	if err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("house %s has %d devices: %w", id, children, ErrConflict)
	}
	n, err := exec(ctx, db.conn, "houses", psql.Delete("houses").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete house: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("house %s: %w", id, ErrNotFound)
	}
	return nil
}

func (db *DB) count(ctx context.Context, table string, where sq.Sqlizer) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From(table).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}
	var n int
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
