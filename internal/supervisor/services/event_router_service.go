// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EventRouter is satisfied by *eventprocessor.Router.
type EventRouter interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// EventRouterService starts the event router and shuts it down when the
// supervisor stops. A router that stops on its own is reported as a
// failure so suture restarts it.
type EventRouterService struct {
	router          EventRouter
	shutdownTimeout time.Duration
	pollInterval    time.Duration
}

// NewEventRouterService wraps router. A non-positive timeout means 10s.
func NewEventRouterService(router EventRouter, shutdownTimeout time.Duration) *EventRouterService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EventRouterService{router: router, shutdownTimeout: shutdownTimeout, pollInterval: 5 * time.Second}
}

func (s *EventRouterService) Serve(ctx context.Context) error {
	if err := s.router.Start(ctx); err != nil {
		return fmt.Errorf("event router start failed: %w", err)
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			s.router.Shutdown(shutdownCtx)
			return ctx.Err()
		case <-ticker.C:
			if !s.router.IsRunning() {
				// release the dead router so the restart can start a new one
				s.router.Shutdown(ctx)
				return errors.New("event router stopped unexpectedly")
			}
		}
	}
}

func (s *EventRouterService) String() string { return "event-router" }
