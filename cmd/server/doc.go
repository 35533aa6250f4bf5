// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

/*
Command server runs the Sensorboard HTTP API, event routing and live feed.

Components start in this order:

 1. Configuration (koanf: defaults, config.yaml, environment)
 2. Logging (zerolog)
 3. DuckDB sample store
 4. Query engine with result cache
 5. Export file store (badger) and export service
 6. Event bus: NATS (optionally embedded) or in-process channels
 7. Websocket hub and event router fanning readings out to it
 8. Authentication, authorization and the chi router
 9. Supervisor tree running everything long-lived

SIGINT and SIGTERM cancel the tree; the HTTP server drains in-flight
requests before the stores are closed.

Development without auth:

	AUTH_MODE=none ./server

Production:

	JWT_SECRET=$(openssl rand -base64 32) \
	ADMIN_USERNAME=admin ADMIN_PASSWORD=... \
	NATS_ENABLED=true NATS_EMBEDDED=true ./server
*/
package main
