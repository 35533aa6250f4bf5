// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

/*
Package middleware provides the infrastructure HTTP middleware mounted on the
chi router: request ids, Prometheus instrumentation, gzip compression and a
per-route latency monitor.

All middleware use the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(perf.Middleware)
	r.Use(middleware.Compression)

Metrics and the performance monitor label requests with the matched chi route
pattern ("/api/v1/sensors/{sensorID}") rather than the raw path, so sensor and
device ids never become label values.

Compression only engages for text payloads (JSON, HTML, CSV, JavaScript).
Generated xlsx downloads are already zip containers and pass through as is,
and websocket upgrades are never wrapped.
*/
package middleware
