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

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/sensorboard/internal/config"
	"github.com/tomtom215/sensorboard/internal/logging"
)

// Bus owns the transport events travel over: NATS JetStream when enabled,
// an in-process Go channel otherwise.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter

	server *EmbeddedServer
	conn   *natsgo.Conn
	isNATS bool

	closeOnce sync.Once
	closeErr  error
}

// BusOption configures NewBus.
type BusOption func(*busOptions)

type busOptions struct {
	serverPort int
}

// WithEmbeddedPort overrides the embedded server port; -1 picks a free one.
func WithEmbeddedPort(port int) BusOption {
	return func(o *busOptions) { o.serverPort = port }
}

// NewBus connects the event transport described by cfg.
func NewBus(ctx context.Context, cfg config.NATSConfig, opts ...BusOption) (*Bus, error) {
	o := busOptions{serverPort: 4222}
	for _, opt := range opts {
		opt(&o)
	}
	logger := NewLogger()

	if !cfg.Enabled {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
		logging.Info().Msg("Events delivered in-process (NATS disabled)")
		return &Bus{publisher: ch, subscriber: ch, logger: logger}, nil
	}

	b := &Bus{logger: logger, isNATS: true}
	url := cfg.URL
	if cfg.EmbeddedServer {
		sc := serverConfig(cfg)
		sc.Port = o.serverPort
		srv, err := NewEmbeddedServer(sc)
		if err != nil {
			return nil, err
		}
		b.server = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	if err := b.connect(ctx, url, cfg); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bus) connect(ctx context.Context, url string, cfg config.NATSConfig) error {
	nc, err := natsgo.Connect(url, natsgo.Name("sensorboard-admin"))
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	b.conn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	streamCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := EnsureStream(streamCtx, js, streamConfig(cfg)); err != nil {
		return err
	}

	if b.publisher, err = NewNATSPublisher(connConfig(url), b.logger); err != nil {
		return err
	}
	if b.subscriber, err = NewNATSSubscriber(subscriberConfig(url, cfg), b.logger); err != nil {
		return err
	}
	return nil
}

// Publisher returns the Watermill publisher.
func (b *Bus) Publisher() message.Publisher { return b.publisher }

// Subscriber returns the Watermill subscriber.
func (b *Bus) Subscriber() message.Subscriber { return b.subscriber }

// Logger returns the Watermill logger used by the bus.
func (b *Bus) Logger() watermill.LoggerAdapter { return b.logger }

// IsNATS reports whether events go through NATS.
func (b *Bus) IsNATS() bool { return b.isNATS }

// Healthy reports whether the transport is usable. An embedded server must
// be running with JetStream, since the sensor stream lives there.
func (b *Bus) Healthy() bool {
	if !b.isNATS {
		return true
	}
	if b.server != nil && (!b.server.IsRunning() || !b.server.JetStreamEnabled()) {
		return false
	}
	return b.conn != nil && b.conn.IsConnected()
}

// Close shuts the transport down. It is safe to call more than once.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		var errs []error
		if b.subscriber != nil {
			errs = append(errs, b.subscriber.Close())
		}
		if b.publisher != nil && b.isNATS {
			errs = append(errs, b.publisher.Close())
		}
		if b.conn != nil {
			b.conn.Close()
		}
		if b.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			errs = append(errs, b.server.Shutdown(ctx))
			cancel()
		}
		b.closeErr = errors.Join(errs...)
	})
	return b.closeErr
}
