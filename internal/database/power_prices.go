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

// DateLayout is the format of power price dates.
const DateLayout = "2006-01-02"

// PowerPrice is one stored hourly price.
type PowerPrice struct {
	Date     time.Time
	Hour     int
	Price    float64
	Currency string
}

// UpsertPowerPrices replaces the 24 hourly prices of a date.
func (db *DB) UpsertPowerPrices(ctx context.Context, day models.PowerPriceDay) error {
	if _, err := time.Parse(DateLayout, day.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", day.Date, err)
	}
	if len(day.Prices) != 24 {
		return fmt.Errorf("expected 24 hourly prices, got %d", len(day.Prices))
	}
	currency := day.Currency
	if currency == "" {
		currency = "DKK"
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	b := psql.Insert("power_prices").Columns("date", "hour", "price", "currency")
	for hour, price := range day.Prices {
		b = b.Values(day.Date, hour, price, currency)
	}
	b = b.Suffix("ON CONFLICT (date, hour) DO UPDATE SET price = EXCLUDED.price, currency = EXCLUDED.currency")

	if _, err := exec(ctx, db.conn, "power_prices", b); err != nil {
		return fmt.Errorf("failed to store power prices for %s: %w", day.Date, err)
	}
	return nil
}

// GetPowerPrices returns the prices of one date, or ErrNotFound when none
// are stored.
func (db *DB) GetPowerPrices(ctx context.Context, date string) (*models.PowerPriceDay, error) {
	prices, err := db.PowerPrices(ctx, []string{date})
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("power prices for %s: %w", date, ErrNotFound)
	}
	day := &models.PowerPriceDay{Date: date, Currency: prices[0].Currency, Prices: make([]float64, 24)}
	for _, p := range prices {
		if p.Hour >= 0 && p.Hour < 24 {
			day.Prices[p.Hour] = p.Price
		}
	}
	return day, nil
}

// PowerPrices returns the stored hourly prices for the given dates ordered by
// date and hour. Dates without prices contribute no rows.
func (db *DB) PowerPrices(ctx context.Context, dates []string) ([]PowerPrice, error) {
	if len(dates) == 0 {
		return []PowerPrice{}, nil
	}
	parsed := make([]interface{}, 0, len(dates))
	for _, d := range dates {
		if _, err := time.Parse(DateLayout, d); err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", d, err)
		}
		parsed = append(parsed, d)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.queryRows(ctx, "power_prices", psql.Select("date", "hour", "price", "currency").From("power_prices").
		Where(sq.Eq{"date": parsed}).
		OrderBy("date", "hour"))
	if err != nil {
		return nil, fmt.Errorf("failed to read power prices: %w", err)
	}
	defer rows.Close()

	out := []PowerPrice{}
	for rows.Next() {
		var p PowerPrice
		if err := rows.Scan(&p.Date, &p.Hour, &p.Price, &p.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan power price: %w", err)
		}
		p.Date = p.Date.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}
