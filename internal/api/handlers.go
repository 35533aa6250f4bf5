// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package api

import (
	"context"
	"time"

	"github.com/tomtom215/sensorboard/internal/auth"
	"github.com/tomtom215/sensorboard/internal/config"
	"github.com/tomtom215/sensorboard/internal/database"
	"github.com/tomtom215/sensorboard/internal/eventprocessor"
	"github.com/tomtom215/sensorboard/internal/export"
	"github.com/tomtom215/sensorboard/internal/middleware"
	"github.com/tomtom215/sensorboard/internal/query"
	"github.com/tomtom215/sensorboard/internal/websocket"
)

// BusHealth reports whether the event bus can deliver.
type BusHealth interface {
	Healthy() bool
	IsNATS() bool
}

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	db          *database.DB
	queries     *query.Service
	exports     *export.Service
	publisher   eventprocessor.EventPublisher
	hub         *websocket.Hub
	jwt         *auth.JWTManager
	credentials *auth.Credentials
	limiter     *auth.DeviceLimiter
	perf        *middleware.PerformanceMonitor
	bus         BusHealth
	cfg         *config.Config
	startTime   time.Time
	now         func() time.Time
}

// HandlerDeps are passed to NewHandler. Publisher, Hub, Bus and
// Credentials may be nil: ingestion then skips event publishing, the
// websocket route answers 503 and login is refused.
type HandlerDeps struct {
	DB          *database.DB
	Queries     *query.Service
	Exports     *export.Service
	Publisher   eventprocessor.EventPublisher
	Hub         *websocket.Hub
	JWT         *auth.JWTManager
	Credentials *auth.Credentials
	Limiter     *auth.DeviceLimiter
	Perf        *middleware.PerformanceMonitor
	Bus         BusHealth
	Config      *config.Config
}

// NewHandler creates the handler set.
func NewHandler(deps HandlerDeps) *Handler {
	perf := deps.Perf
	if perf == nil {
		perf = middleware.NewPerformanceMonitor(1000, time.Second)
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = auth.NewDeviceLimiter(deps.Config.Security.IngestRate, deps.Config.Security.IngestBurst)
	}
	return &Handler{
		db:          deps.DB,
		queries:     deps.Queries,
		exports:     deps.Exports,
		publisher:   deps.Publisher,
		hub:         deps.Hub,
		jwt:         deps.JWT,
		credentials: deps.Credentials,
		limiter:     limiter,
		perf:        perf,
		bus:         deps.Bus,
		cfg:         deps.Config,
		startTime:   time.Now(),
		now:         time.Now,
	}
}

// queryContext bounds a query by the configured timeout.
func (h *Handler) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.cfg.Query.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.cfg.Query.Timeout)
}
