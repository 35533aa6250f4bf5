// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package query

import "errors"

// ErrInvalidQuery is returned for queries the engine cannot run.
var ErrInvalidQuery = errors.New("invalid query")
