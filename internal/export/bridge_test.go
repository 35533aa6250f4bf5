// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package export

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

type capturedRequest struct {
	path string
	auth string
	body map[string]interface{}
}

func exportServer(t *testing.T, status int, captured chan<- capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if captured != nil {
			captured <- capturedRequest{path: r.URL.Path, auth: r.Header.Get("Authorization"), body: body}
		}
		if status != http.StatusOK {
			http.Error(w, "generation failed", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"filename":"data file.xlsx","downloadKey":"k-1"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBridgeSensorData(t *testing.T) {
	t.Parallel()

	captured := make(chan capturedRequest, 1)
	srv := exportServer(t, http.StatusOK, captured)
	nav := &RecordingNavigator{}
	b := NewBridge(srv.URL+"/", nav, WithToken("secret"))

	loc := time.FixedZone("CET", 3600)
	err := b.DownloadData(context.Background(), SensorDataOptions{
		Start:     time.Date(2024, 3, 1, 1, 0, 0, 0, loc),
		End:       time.Date(2024, 3, 11, 1, 0, 0, 0, loc),
		Type:      QueryUngrouped,
		SensorIDs: []string{"s1", "s2"},
	})
	if err != nil {
		t.Fatalf("DownloadData() error = %v", err)
	}

	req := <-captured
	if req.path != sensorDataPath {
		t.Errorf("path = %s", req.path)
	}
	if req.auth != "Bearer secret" {
		t.Errorf("authorization = %q", req.auth)
	}
	if req.body["start"] != "2024-03-01T00:00:00Z" || req.body["end"] != "2024-03-11T00:00:00Z" {
		t.Errorf("timestamps = %v, %v", req.body["start"], req.body["end"])
	}
	if req.body["type"] != "ungrouped" || req.body["output"] != "excel" {
		t.Errorf("body = %v", req.body)
	}
	if _, ok := req.body["applyScaleFactor"]; ok {
		t.Error("applyScaleFactor sent although not set")
	}

	urls := nav.URLs()
	want := srv.URL + "/download/data%20file.xlsx/k-1/attachment"
	if len(urls) != 1 || urls[0] != want {
		t.Errorf("opened %v, want %s", urls, want)
	}
}

func TestBridgePowerPrices(t *testing.T) {
	t.Parallel()

	captured := make(chan capturedRequest, 1)
	srv := exportServer(t, http.StatusOK, captured)
	b := NewBridge(srv.URL, &RecordingNavigator{})

	err := b.DownloadData(context.Background(), PowerDataOptions{
		Dates: []time.Time{
			time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	req := <-captured
	if req.path != powerPricesPath || req.body["type"] != "power" {
		t.Errorf("request = %+v", req)
	}
	dates, _ := req.body["dates"].([]interface{})
	if len(dates) != 2 || dates[0] != "2024-02-01" || dates[1] != "2024-02-02" {
		t.Errorf("dates = %v", req.body["dates"])
	}
}

func TestBridgeHTTPError(t *testing.T) {
	t.Parallel()

	srv := exportServer(t, http.StatusBadRequest, nil)
	nav := &RecordingNavigator{}
	b := NewBridge(srv.URL, nav)

	err := b.DownloadData(context.Background(), SensorDataOptions{SensorIDs: []string{"a"}})
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusBadRequest {
		t.Fatalf("err = %v, want HTTPError 400", err)
	}
	if len(nav.URLs()) != 0 {
		t.Error("navigator opened after failure")
	}
	if err := b.DownloadData(context.Background(), nil); err == nil {
		t.Error("nil options accepted")
	}
}

func TestBridgeBreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewBridge(srv.URL, &RecordingNavigator{})
	opts := SensorDataOptions{SensorIDs: []string{"a"}}
	for i := 0; i < 3; i++ {
		_ = b.DownloadData(context.Background(), opts)
	}
	err := b.DownloadData(context.Background(), opts)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want open breaker", err)
	}
	if hits.Load() != 3 {
		t.Errorf("server hit %d times, want 3", hits.Load())
	}
}

func TestBridgeClientErrorsKeepBreakerClosed(t *testing.T) {
	t.Parallel()

	srv := exportServer(t, http.StatusNotFound, nil)
	b := NewBridge(srv.URL, &RecordingNavigator{})
	for i := 0; i < 5; i++ {
		err := b.DownloadData(context.Background(), PowerDataOptions{})
		var he *HTTPError
		if !errors.As(err, &he) {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}
}
