// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/sensorboard/internal/logging"
)

// DefaultSlowThreshold marks a request as slow in the log.
const DefaultSlowThreshold = time.Second

// RequestSample is one observed request.
type RequestSample struct {
	Route      string        `json:"route"`
	Method     string        `json:"method"`
	Status     int           `json:"status"`
	Duration   time.Duration `json:"durationNs"`
	ObservedAt time.Time     `json:"observedAt"`
}

// RouteStats aggregates the samples of one method and route.
type RouteStats struct {
	Route    string  `json:"route"`
	Requests int     `json:"requests"`
	Errors   int     `json:"errors"`
	AvgMS    float64 `json:"avgMs"`
	P50MS    float64 `json:"p50Ms"`
	P95MS    float64 `json:"p95Ms"`
	P99MS    float64 `json:"p99Ms"`
	MaxMS    float64 `json:"maxMs"`
}

// PerformanceMonitor keeps a sliding window of recent requests. Dashboards
// issue many small query requests, and the window shows which chart queries
// are slow without a Prometheus server at hand.
type PerformanceMonitor struct {
	mu            sync.RWMutex
	samples       []RequestSample
	next          int
	full          bool
	slowThreshold time.Duration
}

// NewPerformanceMonitor keeps the last window requests.
func NewPerformanceMonitor(window int, slowThreshold time.Duration) *PerformanceMonitor {
	if window <= 0 {
		window = 1000
	}
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}
	return &PerformanceMonitor{
		samples:       make([]RequestSample, window),
		slowThreshold: slowThreshold,
	}
}

// Record adds a sample, overwriting the oldest one when the window is full.
func (pm *PerformanceMonitor) Record(s RequestSample) {
	pm.mu.Lock()
	pm.samples[pm.next] = s
	pm.next = (pm.next + 1) % len(pm.samples)
	if pm.next == 0 {
		pm.full = true
	}
	pm.mu.Unlock()
}

func (pm *PerformanceMonitor) snapshot() []RequestSample {
	if pm.full {
		out := make([]RequestSample, 0, len(pm.samples))
		out = append(out, pm.samples[pm.next:]...)
		return append(out, pm.samples[:pm.next]...)
	}
	return append([]RequestSample(nil), pm.samples[:pm.next]...)
}

// Recent returns up to n samples, newest last.
func (pm *PerformanceMonitor) Recent(n int) []RequestSample {
	pm.mu.RLock()
	all := pm.snapshot()
	pm.mu.RUnlock()
	if n < len(all) {
		all = all[len(all)-n:]
	}
	return all
}

// Stats aggregates the window per "METHOD route", busiest route first.
func (pm *PerformanceMonitor) Stats() []RouteStats {
	pm.mu.RLock()
	all := pm.snapshot()
	pm.mu.RUnlock()

	type acc struct {
		durations []float64
		errors    int
	}
	byRoute := make(map[string]*acc)
	for _, s := range all {
		key := s.Method + " " + s.Route
		a, ok := byRoute[key]
		if !ok {
			a = &acc{}
			byRoute[key] = a
		}
		a.durations = append(a.durations, float64(s.Duration)/float64(time.Millisecond))
		if s.Status >= http.StatusInternalServerError {
			a.errors++
		}
	}

	stats := make([]RouteStats, 0, len(byRoute))
	for route, a := range byRoute {
		sort.Float64s(a.durations)
		var sum float64
		for _, d := range a.durations {
			sum += d
		}
		stats = append(stats, RouteStats{
			Route:    route,
			Requests: len(a.durations),
			Errors:   a.errors,
			AvgMS:    sum / float64(len(a.durations)),
			P50MS:    percentile(a.durations, 0.50),
			P95MS:    percentile(a.durations, 0.95),
			P99MS:    percentile(a.durations, 0.99),
			MaxMS:    a.durations[len(a.durations)-1],
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Requests != stats[j].Requests {
			return stats[i].Requests > stats[j].Requests
		}
		return stats[i].Route < stats[j].Route
	})
	return stats
}

// Middleware records every request and logs the slow ones.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := newStatusWriter(w)
		next.ServeHTTP(sw, r)
		elapsed := time.Since(start)

		route := routePattern(r)
		pm.Record(RequestSample{
			Route:      route,
			Method:     r.Method,
			Status:     sw.status,
			Duration:   elapsed,
			ObservedAt: start,
		})

		if elapsed > pm.slowThreshold {
			logging.Ctx(r.Context()).Warn().
				Str("method", r.Method).
				Str("route", route).
				Int("status", sw.status).
				Dur("duration", elapsed).
				Msg("Slow request")
		}
	})
}

// percentile expects sorted input.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
