// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

// Package models holds the types shared by the store, the query engine, the
// HTTP API and the chart and export clients.
//
// Request structs carry go-playground/validator tags; the API validates them
// through the validation package before they reach the store.
package models
