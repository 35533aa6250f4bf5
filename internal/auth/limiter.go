// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/sensorboard/internal/logging"
)

const (
	limiterIdleTimeout     = time.Hour
	limiterCleanupInterval = 5 * time.Minute
)

// DeviceLimiter is a token bucket per device id. Devices normally post
// every few seconds; a misbehaving one is throttled without affecting the
// others.
type DeviceLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewDeviceLimiter allows perSecond sustained requests per device with
// burst headroom. A non-positive rate disables limiting.
func NewDeviceLimiter(perSecond float64, burst int) *DeviceLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &DeviceLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     limit,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow consumes one token of deviceID's bucket.
func (l *DeviceLimiter) Allow(deviceID string) bool {
	now := l.now()
	l.mu.Lock()
	e, ok := l.limiters[deviceID]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[deviceID] = e
	}
	e.lastSeen = now
	limiter := e.limiter
	l.mu.Unlock()
	return limiter.AllowN(now, 1)
}

// Len returns the number of tracked devices.
func (l *DeviceLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *DeviceLimiter) cleanup() int {
	cutoff := l.now().Add(-limiterIdleTimeout)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, id)
			removed++
		}
	}
	return removed
}

// Serve drops buckets of devices idle for an hour. It implements
// suture.Service.
func (l *DeviceLimiter) Serve(ctx context.Context) error {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := l.cleanup(); n > 0 {
				logging.Debug().Int("removed", n).Msg("Dropped idle device rate limiters")
			}
		}
	}
}

func (l *DeviceLimiter) String() string { return "device-limiter-janitor" }
