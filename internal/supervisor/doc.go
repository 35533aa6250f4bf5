// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

/*
Package supervisor runs Sensorboard's long-lived goroutines under a suture
tree so a crashing component is restarted with backoff instead of taking
the process down.

	sensorboard (root)
	├── data-layer       export store GC, device limiter janitor
	├── messaging-layer  websocket hub, event router
	└── api-layer        HTTP server

Layers are separate supervisors: repeated failures of the event router put
only the messaging layer into backoff while the API keeps serving.

Supervisor events are logged through sutureslog into the zerolog-backed
slog logger from logging.NewSlogLogger.
*/
package supervisor
