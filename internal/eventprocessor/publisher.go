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
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/metrics"
)

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// EventPublisher is what the ingestion path publishes through.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *SensorEvent) error
}

func natsOptions(cfg ConnConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

// NewNATSPublisher creates a JetStream publisher. The stream must exist.
func NewNATSPublisher(cfg ConnConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOptions(cfg, logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return pub, nil
}

// Publisher serializes sensor events and publishes them through a circuit
// breaker.
type Publisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[interface{}]
	dedupe    bool

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps a Watermill publisher. With dedupe set the event id is
// sent as Nats-Msg-Id so JetStream drops redeliveries.
func NewPublisher(pub message.Publisher, dedupe bool) *Publisher {
	return &Publisher{
		publisher: pub,
		breaker:   NewCircuitBreaker(DefaultCircuitBreakerConfig("event-publisher")),
		dedupe:    dedupe,
	}
}

// PublishEvent implements EventPublisher.
func (p *Publisher) PublishEvent(ctx context.Context, event *SensorEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	if event.CorrelationID == "" {
		event.CorrelationID = logging.CorrelationIDFromContext(ctx)
	}
	data, err := SerializeEvent(event)
	if err != nil {
		metrics.RecordEventPublish(event.Topic(), err)
		return err
	}

	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set("device_id", event.DeviceID)
	msg.Metadata.Set("sensor_id", event.SensorID)
	if p.dedupe {
		msg.Metadata.Set(natsgo.MsgIdHdr, event.EventID)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(event.Topic(), msg)
	})
	metrics.RecordEventPublish(event.Topic(), err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Topic(), err)
	}
	return nil
}

// BreakerState reports the publisher breaker state.
func (p *Publisher) BreakerState() string {
	return CircuitBreakerState(p.breaker)
}

// Close marks the publisher closed. The underlying publisher is owned by
// the Bus.
func (p *Publisher) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
