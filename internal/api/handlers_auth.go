// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/sensorboard/internal/auth"
	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/models"
)

// Login exchanges admin credentials for a token. The token is returned in
// the body and also set as an HttpOnly cookie so dashboard pages work
// without script access to it.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.credentials == nil || h.jwt == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailble, "login is not configured", nil)
		return
	}

	if err := h.credentials.Verify(req.Username, req.Password); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "login failed", err)
			return
		}
		logging.Ctx(r.Context()).Warn().
			Str("username", sanitizeLogValue(req.Username)).
			Msg("Failed login attempt")
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid username or password", nil)
		return
	}

	token, expires, err := h.jwt.GenerateAdminToken(req.Username)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to issue token", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	respondData(w, http.StatusOK, models.TokenResponse{Token: token, ExpiresAt: expires}, start)
}

// Logout clears the token cookie. Tokens are stateless, so a copied token
// stays valid until it expires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// DeviceToken issues a token a device uses to post readings.
func (h *Handler) DeviceToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	deviceID := chi.URLParam(r, "deviceID")
	if h.jwt == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailble, "token issuing is disabled in this auth mode", nil)
		return
	}

	device, err := h.db.GetDevice(r.Context(), deviceID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !device.Active {
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "device is not active", nil)
		return
	}

	token, expires, err := h.jwt.GenerateDeviceToken(device.ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to issue token", err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("device_id", device.ID).Time("expires", expires).Msg("Device token issued")
	respondData(w, http.StatusCreated, models.TokenResponse{Token: token, ExpiresAt: expires}, start)
}
