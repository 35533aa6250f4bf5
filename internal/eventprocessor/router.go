// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/metrics"
)

// Sink receives every consumed event.
type Sink interface {
	HandleEvent(ctx context.Context, event *SensorEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event *SensorEvent) error

// HandleEvent implements Sink.
func (f SinkFunc) HandleEvent(ctx context.Context, event *SensorEvent) error {
	return f(ctx, event)
}

// RouterConfig holds Watermill router settings.
type RouterConfig struct {
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Router consumes events from the bus and fans them out to sinks. A new
// Watermill router is built on every Start so a supervisor can restart it.
type Router struct {
	bus   *Bus
	cfg   RouterConfig
	sinks []Sink

	mu      sync.Mutex
	router  *message.Router
	done    chan struct{}
	running bool
}

// NewRouter creates a router delivering to sinks in order.
func NewRouter(bus *Bus, cfg RouterConfig, sinks ...Sink) *Router {
	return &Router{bus: bus, cfg: cfg, sinks: sinks}
}

// Start subscribes to every event topic and returns once the router runs.
func (r *Router) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("event router already running")
	}

	wm, err := message.NewRouter(message.RouterConfig{CloseTimeout: r.cfg.CloseTimeout}, r.bus.Logger())
	if err != nil {
		return fmt.Errorf("create watermill router: %w", err)
	}
	wm.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      r.cfg.RetryMaxRetries,
		InitialInterval: r.cfg.RetryInitialInterval,
		MaxInterval:     r.cfg.RetryMaxInterval,
		Multiplier:      r.cfg.RetryMultiplier,
		Logger:          r.bus.Logger(),
	}
	wm.AddMiddleware(retry.Middleware)

	for _, topic := range Topics {
		wm.AddConsumerHandler("fanout-"+topic, topic, r.bus.Subscriber(), r.handler(topic))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := wm.Run(ctx); err != nil {
			logging.Error().Err(err).Msg("Event router stopped with error")
		}
	}()

	select {
	case <-wm.Running():
	case <-done:
		return errors.New("event router exited during startup")
	case <-ctx.Done():
		_ = wm.Close()
		<-done
		return ctx.Err()
	}

	r.router = wm
	r.done = done
	r.running = true
	logging.Info().Int("sinks", len(r.sinks)).Msg("Event router running")
	return nil
}

// Shutdown closes the router and waits for in-flight handlers.
func (r *Router) Shutdown(ctx context.Context) {
	r.mu.Lock()
	wm, done := r.router, r.done
	r.router, r.done, r.running = nil, nil, false
	r.mu.Unlock()
	if wm == nil {
		return
	}
	if err := wm.Close(); err != nil {
		logging.Warn().Err(err).Msg("Event router close failed")
	}
	select {
	case <-done:
	case <-ctx.Done():
		logging.Warn().Msg("Event router did not stop before deadline")
	}
}

// IsRunning reports whether the router is consuming. A router whose run
// loop exited on its own is not running.
func (r *Router) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

func (r *Router) handler(topic string) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		event, err := DeserializeEvent(msg.Payload)
		if err != nil {
			// Malformed payloads never succeed on retry.
			logging.Warn().Err(err).Str("topic", topic).Str("message_id", msg.UUID).Msg("Dropping malformed event")
			return nil
		}
		ctx := msg.Context()
		if event.CorrelationID != "" {
			ctx = logging.ContextWithCorrelationID(ctx, event.CorrelationID)
		}
		for _, sink := range r.sinks {
			if err := sink.HandleEvent(ctx, event); err != nil {
				return fmt.Errorf("sink %T: %w", sink, err)
			}
		}
		metrics.EventsConsumed.WithLabelValues(topic).Inc()
		return nil
	}
}
