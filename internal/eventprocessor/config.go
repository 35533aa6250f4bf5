// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package eventprocessor

import (
	"time"

	"github.com/tomtom215/sensorboard/internal/config"
)

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int // -1 picks a random port
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// ConnConfig holds NATS client connection settings shared by the publisher
// and subscriber.
type ConnConfig struct {
	URL             string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
}

// SubscriberConfig holds JetStream consumer settings.
type SubscriberConfig struct {
	ConnConfig
	StreamName     string
	DurableName    string
	AckWaitTimeout time.Duration
	MaxDeliver     int
	MaxAckPending  int
	CloseTimeout   time.Duration
}

// StreamConfig defines the sensor event stream.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	DuplicateWindow time.Duration
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // allowed in half-open state
	Interval         time.Duration // reset interval for counts
	Timeout          time.Duration // time to stay open
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig returns the publisher breaker defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

func connConfig(url string) ConnConfig {
	return ConnConfig{
		URL:             url,
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 << 20,
	}
}

func serverConfig(cfg config.NATSConfig) ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          cfg.StoreDir,
		JetStreamMaxMem:   cfg.MaxMemory,
		JetStreamMaxStore: cfg.MaxStore,
	}
}

func streamConfig(cfg config.NATSConfig) StreamConfig {
	days := cfg.RetentionDays
	if days <= 0 {
		days = 7
	}
	return StreamConfig{
		Name:            cfg.StreamName,
		Subjects:        []string{"sensor.>"},
		MaxAge:          time.Duration(days) * 24 * time.Hour,
		MaxBytes:        cfg.MaxStore,
		DuplicateWindow: 2 * time.Minute,
	}
}

func subscriberConfig(url string, cfg config.NATSConfig) SubscriberConfig {
	closeTimeout := cfg.CloseTimeout
	if closeTimeout <= 0 {
		closeTimeout = 10 * time.Second
	}
	return SubscriberConfig{
		ConnConfig:     connConfig(url),
		StreamName:     cfg.StreamName,
		DurableName:    cfg.DurableName,
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,
		MaxAckPending:  1000,
		CloseTimeout:   closeTimeout,
	}
}
