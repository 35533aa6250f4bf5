// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestPerformanceMonitorWindow(t *testing.T) {
	t.Parallel()

	pm := NewPerformanceMonitor(3, 0)
	for i := 1; i <= 5; i++ {
		pm.Record(RequestSample{Route: "/r", Method: "GET", Status: 200, Duration: time.Duration(i) * time.Millisecond})
	}

	recent := pm.Recent(10)
	if len(recent) != 3 {
		t.Fatalf("Recent() len = %d, want 3", len(recent))
	}
	for i, want := range []time.Duration{3, 4, 5} {
		if recent[i].Duration != want*time.Millisecond {
			t.Errorf("recent[%d] = %v, want %vms", i, recent[i].Duration, want)
		}
	}
	if got := pm.Recent(1); len(got) != 1 || got[0].Duration != 5*time.Millisecond {
		t.Errorf("Recent(1) = %+v", got)
	}
}

func TestPerformanceMonitorStats(t *testing.T) {
	t.Parallel()

	pm := NewPerformanceMonitor(100, 0)
	for _, ms := range []int{10, 20, 30, 40} {
		pm.Record(RequestSample{Route: "/api/v1/data/grouped", Method: "POST", Status: 200, Duration: time.Duration(ms) * time.Millisecond})
	}
	pm.Record(RequestSample{Route: "/api/v1/health", Method: "GET", Status: 503, Duration: time.Millisecond})

	stats := pm.Stats()
	if len(stats) != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	q := stats[0]
	if q.Route != "POST /api/v1/data/grouped" || q.Requests != 4 || q.AvgMS != 25 || q.MaxMS != 40 || q.P50MS != 20 {
		t.Errorf("query stats = %+v", q)
	}
	if stats[1].Errors != 1 {
		t.Errorf("health errors = %d, want 1", stats[1].Errors)
	}
}

func TestPerformanceMonitorMiddleware(t *testing.T) {
	t.Parallel()

	pm := NewPerformanceMonitor(10, time.Nanosecond)
	r := chi.NewRouter()
	r.Use(pm.Middleware)
	r.Get("/api/v1/sensors/{sensorID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/sensors/42", nil))

	recent := pm.Recent(1)
	if len(recent) != 1 {
		t.Fatal("no sample recorded")
	}
	if recent[0].Route != "/api/v1/sensors/{sensorID}" || recent[0].Status != http.StatusNotFound {
		t.Errorf("sample = %+v", recent[0])
	}
}
