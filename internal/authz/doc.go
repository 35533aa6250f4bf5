// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

// Package authz decides what an authenticated role may do, using a Casbin
// RBAC model with keyMatch2 path patterns. The model and default policy are
// embedded; a policy CSV on disk may replace the default.
//
// Requests map to actions by method: GET/HEAD/OPTIONS read, POST/PUT/PATCH
// write, DELETE delete. Device tokens may only write /api/v1/ingest.
package authz
