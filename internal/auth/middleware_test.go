// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/sensorboard/internal/logging"
)

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	admin, _, err := m.GenerateAdminToken("root")
	if err != nil {
		t.Fatal(err)
	}
	device, _, err := m.GenerateDeviceToken("dev-1")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantRole   string
	}{
		{"bearer admin", "Bearer " + admin, "", http.StatusOK, RoleAdmin},
		{"lowercase scheme", "bearer " + device, "", http.StatusOK, RoleDevice},
		{"cookie", "", admin, http.StatusOK, RoleAdmin},
		{"missing", "", "", http.StatusUnauthorized, ""},
		{"basic scheme", "Basic abc", "", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var role, deviceID string
			h := NewMiddleware(m, ModeJWT).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c, ok := ClaimsFromContext(r.Context())
				if !ok {
					t.Error("no claims in context")
					return
				}
				role = c.Role
				deviceID = logging.DeviceIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/houses", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if !strings.Contains(rec.Body.String(), `"code":"UNAUTHORIZED"`) {
					t.Errorf("body = %s", rec.Body.String())
				}
				return
			}
			if role != tt.wantRole {
				t.Errorf("role = %q, want %q", role, tt.wantRole)
			}
			if tt.wantRole == RoleDevice && deviceID != "dev-1" {
				t.Errorf("device id in logging context = %q", deviceID)
			}
		})
	}
}

func TestAuthenticateModeNone(t *testing.T) {
	t.Parallel()

	var claims *Claims
	h := NewMiddleware(nil, ModeNone).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ = ClaimsFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK || claims == nil || claims.Role != RoleAdmin {
		t.Errorf("status = %d, claims = %+v", rec.Code, claims)
	}
}
