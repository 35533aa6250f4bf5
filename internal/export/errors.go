// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package export

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for an unknown or expired download key.
var ErrNotFound = errors.New("export not found")

// ErrTooManyRows is returned when an export exceeds the configured row limit.
var ErrTooManyRows = errors.New("export exceeds row limit")

// HTTPError is a non-2xx answer from the export endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("export request failed: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("export request failed: HTTP %d: %s", e.StatusCode, e.Body)
}
