// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/sensorboard/internal/api"
	"github.com/tomtom215/sensorboard/internal/auth"
	"github.com/tomtom215/sensorboard/internal/authz"
	"github.com/tomtom215/sensorboard/internal/cache"
	"github.com/tomtom215/sensorboard/internal/config"
	"github.com/tomtom215/sensorboard/internal/database"
	"github.com/tomtom215/sensorboard/internal/eventprocessor"
	"github.com/tomtom215/sensorboard/internal/export"
	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/metrics"
	"github.com/tomtom215/sensorboard/internal/middleware"
	"github.com/tomtom215/sensorboard/internal/query"
	"github.com/tomtom215/sensorboard/internal/supervisor"
	"github.com/tomtom215/sensorboard/internal/supervisor/services"
	"github.com/tomtom215/sensorboard/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Server stopped")
}

//nolint:gocyclo // sequential wiring
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Starting Sensorboard")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer closeWithLog("database", db.Close)

	queryCache := cache.New(cfg.Query.CacheTTL, cache.WithSizeGauge(metrics.CacheEntries))
	defer queryCache.Close()
	queries := query.NewService(db,
		query.WithCache(queryCache),
		query.WithDefaultDecimals(cfg.Query.DefaultDecimals),
	)

	store, err := export.OpenStore(cfg.Export.StorePath, cfg.Export.TTL)
	if err != nil {
		return err
	}
	defer closeWithLog("export store", store.Close)
	exports := export.NewService(queries, store, cfg.Export.MaxRows)

	bus, err := eventprocessor.NewBus(ctx, cfg.NATS)
	if err != nil {
		return fmt.Errorf("initialize event bus: %w", err)
	}
	defer closeWithLog("event bus", bus.Close)

	// Deduplication only matters when JetStream may redeliver.
	publisher := eventprocessor.NewPublisher(bus.Publisher(), bus.IsNATS())
	defer closeWithLog("event publisher", publisher.Close)

	hub := websocket.NewHub()
	router := eventprocessor.NewRouter(bus, eventprocessor.DefaultRouterConfig(), hub)

	jwtManager, credentials, err := setupAuth(cfg)
	if err != nil {
		return err
	}
	enforcer, err := authz.NewEnforcer(cfg.Security.PolicyPath)
	if err != nil {
		return err
	}
	limiter := auth.NewDeviceLimiter(cfg.Security.IngestRate, cfg.Security.IngestBurst)
	perf := middleware.NewPerformanceMonitor(1000, cfg.Server.SlowRequestThreshold)

	handler := api.NewHandler(api.HandlerDeps{
		DB:          db,
		Queries:     queries,
		Exports:     exports,
		Publisher:   publisher,
		Hub:         hub,
		JWT:         jwtManager,
		Credentials: credentials,
		Limiter:     limiter,
		Perf:        perf,
		Bus:         bus,
		Config:      cfg,
	})
	apiRouter := api.NewRouter(handler,
		auth.NewMiddleware(jwtManager, cfg.Security.AuthMode),
		authz.NewMiddleware(enforcer),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security)),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           apiRouter.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(store)
	tree.AddDataService(limiter)
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewEventRouterService(router, cfg.NATS.CloseTimeout))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
	err = tree.Serve(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// setupAuth returns nil credentials in none mode, where login is refused
// and every request runs as the administrator.
func setupAuth(cfg *config.Config) (*auth.JWTManager, *auth.Credentials, error) {
	if cfg.Security.AuthMode == auth.ModeNone {
		logging.Warn().Msg("Authentication disabled (AUTH_MODE=none); do not expose this server")
		return nil, nil, nil
	}
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return nil, nil, err
	}
	credentials, err := auth.NewCredentials(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("hash admin password: %w", err)
	}
	return jwtManager, credentials, nil
}

func closeWithLog(name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logging.Error().Err(err).Str("component", name).Msg("Close failed")
	}
}
