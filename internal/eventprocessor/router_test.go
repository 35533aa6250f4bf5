// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package eventprocessor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/sensorboard/internal/config"
	"github.com/tomtom215/sensorboard/internal/models"
)

func fastRouterConfig() RouterConfig {
	cfg := DefaultRouterConfig()
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond
	cfg.CloseTimeout = time.Second
	return cfg
}

type recordingSink struct {
	events chan *SensorEvent
}

func (s *recordingSink) HandleEvent(_ context.Context, e *SensorEvent) error {
	s.events <- e
	return nil
}

func waitEvent(t *testing.T, ch <-chan *SensorEvent) *SensorEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func startRouter(t *testing.T, bus *Bus, sinks ...Sink) *Router {
	t.Helper()
	r := NewRouter(bus, fastRouterConfig(), sinks...)
	ctx, cancel := context.WithCancel(context.Background())
	if err := r.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		r.Shutdown(shutdownCtx)
		done()
		cancel()
	})
	return r
}

func TestInProcessRoundTrip(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(context.Background(), config.NATSConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = bus.Close() }()
	if bus.IsNATS() || !bus.Healthy() {
		t.Error("disabled NATS should give a healthy in-process bus")
	}

	sink := &recordingSink{events: make(chan *SensorEvent, 4)}
	r := startRouter(t, bus, sink)
	if !r.IsRunning() {
		t.Error("router not running after Start")
	}
	if err := r.Start(context.Background()); err == nil {
		t.Error("second Start accepted")
	}

	pub := NewPublisher(bus.Publisher(), false)
	reading := NewReadingEvent(
		models.Sample{SensorID: "s1", Timestamp: time.Now(), Value: 21},
		models.SensorDetails{Sensor: models.Sensor{Name: "Kitchen", ScaleFactor: 1}},
	)
	if err := pub.PublishEvent(context.Background(), reading); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}
	got := waitEvent(t, sink.events)
	if got.EventID != reading.EventID || got.SensorName != "Kitchen" {
		t.Errorf("received %+v", got)
	}

	if err := pub.PublishEvent(context.Background(), NewUnknownEvent("d1", "new", 1, time.Now())); err != nil {
		t.Fatal(err)
	}
	if got := waitEvent(t, sink.events); got.Topic() != TopicSensorUnknown {
		t.Errorf("topic = %s", got.Topic())
	}
	if pub.BreakerState() != "closed" {
		t.Errorf("breaker = %s", pub.BreakerState())
	}
}

func TestRouterRetriesFailingSink(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(context.Background(), config.NATSConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = bus.Close() }()

	var attempts atomic.Int32
	delivered := make(chan *SensorEvent, 1)
	flaky := SinkFunc(func(_ context.Context, e *SensorEvent) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		delivered <- e
		return nil
	})
	startRouter(t, bus, flaky)

	pub := NewPublisher(bus.Publisher(), false)
	if err := pub.PublishEvent(context.Background(), NewUnknownEvent("d", "s", 1, time.Now())); err != nil {
		t.Fatal(err)
	}
	waitEvent(t, delivered)
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestRouterDropsMalformedPayload(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(context.Background(), config.NATSConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = bus.Close() }()

	sink := &recordingSink{events: make(chan *SensorEvent, 2)}
	startRouter(t, bus, sink)

	if err := bus.Publisher().Publish(TopicSensorReading, message.NewMessage("bad", []byte("not json"))); err != nil {
		t.Fatal(err)
	}
	pub := NewPublisher(bus.Publisher(), false)
	good := NewUnknownEvent("d", "s", 1, time.Now())
	good.Type = TopicSensorReading
	if err := pub.PublishEvent(context.Background(), good); err != nil {
		t.Fatal(err)
	}
	if got := waitEvent(t, sink.events); got.EventID != good.EventID {
		t.Errorf("got %s, want the valid event", got.EventID)
	}
}

func TestPublisherClosed(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(context.Background(), config.NATSConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = bus.Close() }()

	pub := NewPublisher(bus.Publisher(), false)
	_ = pub.Close()
	if err := pub.PublishEvent(context.Background(), NewUnknownEvent("d", "s", 1, time.Now())); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("err = %v", err)
	}
}

func TestEmbeddedNATSRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}
	t.Parallel()

	cfg := config.NATSConfig{
		Enabled:        true,
		EmbeddedServer: true,
		StoreDir:       t.TempDir(),
		MaxMemory:      64 << 20,
		MaxStore:       64 << 20,
		StreamName:     "SENSORS_TEST",
		DurableName:    "sensorboard-test",
		RetentionDays:  1,
		CloseTimeout:   time.Second,
	}
	bus, err := NewBus(context.Background(), cfg, WithEmbeddedPort(-1))
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	defer func() { _ = bus.Close() }()
	if !bus.IsNATS() || !bus.Healthy() {
		t.Fatal("bus not connected to NATS")
	}

	sink := &recordingSink{events: make(chan *SensorEvent, 64)}
	startRouter(t, bus, sink)

	pub := NewPublisher(bus.Publisher(), true)
	published := make(map[string]bool)
	deadline := time.Now().Add(10 * time.Second)
	for {
		// The consumer may attach after the first publish, so keep
		// publishing fresh events until one arrives.
		e := NewUnknownEvent("d1", "s1", 7, time.Now())
		e.Type = TopicSensorReading
		if err := pub.PublishEvent(context.Background(), e); err != nil {
			t.Fatalf("PublishEvent() error = %v", err)
		}
		published[e.EventID] = true

		select {
		case got := <-sink.events:
			if !published[got.EventID] {
				t.Errorf("received unknown event %s", got.EventID)
			}
			return
		case <-time.After(500 * time.Millisecond):
			if time.Now().After(deadline) {
				t.Fatal("event never delivered over NATS")
			}
		}
	}
}
