// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package api

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status        string  `json:"status"`
	Database      bool    `json:"database"`
	EventBus      string  `json:"eventBus"`
	Breaker       string  `json:"breaker,omitempty"`
	WSClients     int     `json:"wsClients"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

type breakerReporter interface {
	BreakerState() string
}

// Health reports liveness. The status is "degraded" with a 503 when the
// database does not answer and "degraded" with a 200 when only the event
// bus is down, since ingestion still stores readings then.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:        "healthy",
		Database:      h.db.Ping(ctx) == nil,
		EventBus:      "disabled",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	if h.bus != nil {
		status.EventBus = "channel"
		if h.bus.IsNATS() {
			status.EventBus = "nats"
		}
		if !h.bus.Healthy() {
			status.EventBus += " (down)"
			status.Status = "degraded"
		}
	}
	if br, ok := h.publisher.(breakerReporter); ok {
		status.Breaker = br.BreakerState()
	}
	if h.hub != nil {
		status.WSClients = h.hub.GetClientCount()
	}

	code := http.StatusOK
	if !status.Database {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	respondData(w, code, status, start)
}

// Performance returns the latency window per route.
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]interface{}{
		"routes": h.perf.Stats(),
		"recent": h.perf.Recent(50),
	}, time.Now())
}
