// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package eventprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/sensorboard/internal/config"
)

func TestEmbeddedServerReportsJetStream(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}
	t.Parallel()

	srv, err := NewEmbeddedServer(ServerConfig{
		Host:              "127.0.0.1",
		Port:              -1,
		StoreDir:          t.TempDir(),
		JetStreamMaxMem:   32 << 20,
		JetStreamMaxStore: 32 << 20,
	})
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	if !srv.IsRunning() {
		t.Error("server not running after start")
	}
	if !srv.JetStreamEnabled() {
		t.Error("JetStream not enabled on the embedded server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if srv.IsRunning() {
		t.Error("server still running after shutdown")
	}
}

func TestBusHealthFollowsEmbeddedServer(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}
	t.Parallel()

	bus, err := NewBus(context.Background(), config.NATSConfig{
		Enabled:        true,
		EmbeddedServer: true,
		StoreDir:       t.TempDir(),
		MaxMemory:      32 << 20,
		MaxStore:       32 << 20,
		StreamName:     "SENSORS_HEALTH_TEST",
		DurableName:    "sensorboard-health-test",
		RetentionDays:  1,
		CloseTimeout:   time.Second,
	}, WithEmbeddedPort(-1))
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	defer func() { _ = bus.Close() }()

	if !bus.Healthy() {
		t.Fatal("bus unhealthy with a running JetStream server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bus.server.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if bus.Healthy() {
		t.Error("bus healthy after its embedded server stopped")
	}
}
