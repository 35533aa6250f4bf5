// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

// Package services adapts components with their own lifecycle methods to
// suture.Service. Components that already implement Serve(ctx) and
// String(), such as export.Store and auth.DeviceLimiter, are added to the
// tree directly.
package services
