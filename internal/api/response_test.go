// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/sensorboard/internal/database"
	"github.com/tomtom215/sensorboard/internal/export"
	"github.com/tomtom215/sensorboard/internal/query"
	"github.com/tomtom215/sensorboard/internal/validation"
)

func TestRespondServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"not found", fmt.Errorf("sensor x: %w", database.ErrNotFound), http.StatusNotFound, ErrCodeNotFound},
		{"download gone", export.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"conflict", database.ErrConflict, http.StatusConflict, ErrCodeConflict},
		{"invalid query", fmt.Errorf("%w: grouping", query.ErrInvalidQuery), http.StatusBadRequest, ErrCodeBadRequest},
		{"too many rows", export.ErrTooManyRows, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, ErrCodeTimeout},
		{"validation", validation.NewError("date", "date is invalid"), http.StatusBadRequest, validation.CodeValidationError},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeDatabaseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			respondServiceError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(rec.Body.String(), `"code":"`+tt.wantErr+`"`) {
				t.Errorf("body = %s, want code %s", rec.Body.String(), tt.wantErr)
			}
		})
	}
}

func TestRespondServiceErrorCanceledWritesNothing(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	respondServiceError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), context.Canceled)
	if rec.Body.Len() != 0 {
		t.Errorf("wrote %q for a canceled request", rec.Body.String())
	}
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	t.Parallel()

	body := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
	rec := httptest.NewRecorder()
	var v struct {
		Name string `json:"name"`
	}
	if decodeJSON(rec, r, &v) {
		t.Fatal("oversized body accepted")
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("a\nb\x1b"); got != `a\x0ab\x1b` {
		t.Errorf("sanitizeLogValue = %q", got)
	}
}

func TestLoginRateLimit(t *testing.T) {
	t.Parallel()

	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 10, RateLimitWindow: time.Minute})
	h := mw.RateLimit(limitLogin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
		codes = append(codes, rec.Code)
	}
	for i, c := range codes[:5] {
		if c != http.StatusOK {
			t.Errorf("request %d = %d, want 200", i, c)
		}
	}
	if codes[5] != http.StatusTooManyRequests {
		t.Errorf("sixth login = %d, want 429", codes[5])
	}

	off := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})
	unlimited := off.RateLimit(limitLogin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		unlimited.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d limited with rate limiting disabled", i)
		}
	}
}
