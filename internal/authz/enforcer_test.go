// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package authz

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/sensorboard/internal/auth"
)

func TestEmbeddedPolicy(t *testing.T) {
	t.Parallel()

	e, err := NewEnforcer("")
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}

	tests := []struct {
		role, path, action string
		want               bool
	}{
		{"admin", "/api/v1/houses/h1", "delete", true},
		{"admin", "/api/v1/ingest", "write", true},
		{"admin", "/dashboard/sensors/s1", "read", true},
		{"device", "/api/v1/ingest", "write", true},
		{"device", "/api/v1/ingest", "read", false},
		{"device", "/api/v1/houses", "read", false},
		{"device", "/api/v1/data/grouped", "write", false},
		{"viewer", "/api/v1/data/grouped", "write", true},
		{"viewer", "/api/v1/houses/h1", "delete", false},
		{"nobody", "/api/v1/houses", "read", false},
	}
	for _, tt := range tests {
		got, err := e.Enforce(tt.role, tt.path, tt.action)
		if err != nil {
			t.Fatalf("Enforce() error = %v", err)
		}
		if got != tt.want {
			t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.role, tt.path, tt.action, got, tt.want)
		}
	}
}

func TestPolicyFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte("p, device, /api/v1/ingest, write\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e, err := NewEnforcer(path)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := e.Enforce("admin", "/api/v1/houses", "read"); ok {
		t.Error("file policy should replace the embedded admin rule")
	}
	if ok, _ := e.Enforce("device", "/api/v1/ingest", "write"); !ok {
		t.Error("device rule from file not loaded")
	}
}

func TestAuthorizeRequest(t *testing.T) {
	t.Parallel()

	e, err := NewEnforcer("")
	if err != nil {
		t.Fatal(err)
	}
	h := NewMiddleware(e).AuthorizeRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(role, method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		if role != "" {
			c := &auth.Claims{Role: role}
			c.Subject = "x"
			req = req.WithContext(auth.WithClaims(req.Context(), c))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := serve(auth.RoleDevice, http.MethodPost, "/api/v1/ingest"); code != http.StatusNoContent {
		t.Errorf("device ingest = %d", code)
	}
	if code := serve(auth.RoleDevice, http.MethodDelete, "/api/v1/sensors/s1"); code != http.StatusForbidden {
		t.Errorf("device delete = %d", code)
	}
	if code := serve(auth.RoleAdmin, http.MethodDelete, "/api/v1/sensors/s1"); code != http.StatusNoContent {
		t.Errorf("admin delete = %d", code)
	}
	if code := serve("", http.MethodGet, "/api/v1/houses"); code != http.StatusForbidden {
		t.Errorf("anonymous = %d", code)
	}
}
