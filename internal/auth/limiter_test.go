// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package auth

import (
	"testing"
	"time"
)

func TestDeviceLimiterPerDevice(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	l := NewDeviceLimiter(1, 2)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 not allowed")
	}
	if l.Allow("a") {
		t.Error("third request inside the same instant allowed")
	}
	if !l.Allow("b") {
		t.Error("device b throttled by device a")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Error("token not refilled after one second")
	}
}

func TestDeviceLimiterDisabled(t *testing.T) {
	t.Parallel()

	l := NewDeviceLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d throttled with limiting disabled", i)
		}
	}
}

func TestDeviceLimiterCleanup(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	l := NewDeviceLimiter(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(limiterIdleTimeout + time.Minute)
	l.Allow("fresh")

	if removed := l.cleanup(); removed != 1 {
		t.Errorf("cleanup() removed %d, want 1", removed)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}
