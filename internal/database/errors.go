// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package database

import (
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would break an invariant, such
	// as deleting a house that still has devices or reusing a sensor id.
	ErrConflict = errors.New("conflict")
)

// closeQuietly closes a resource on an error path where the close error is
// not actionable.
func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
