// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/sensorboard/internal/models"
	"github.com/tomtom215/sensorboard/internal/validation"
)

const (
	defaultSampleLimit = 100
	maxSampleLimit     = 1000
)

// ListHouses handles GET /api/v1/houses.
func (h *Handler) ListHouses(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	houses, err := h.db.ListHouses(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, houses, start)
}

// CreateHouse handles POST /api/v1/houses.
func (h *Handler) CreateHouse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var in models.HouseInput
	if !decodeJSON(w, r, &in) {
		return
	}
	house, err := h.db.CreateHouse(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, house, start)
}

func (h *Handler) GetHouse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	house, err := h.db.GetHouse(r.Context(), chi.URLParam(r, "houseID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, house, start)
}

func (h *Handler) UpdateHouse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var in models.HouseInput
	if !decodeJSON(w, r, &in) {
		return
	}
	house, err := h.db.UpdateHouse(r.Context(), chi.URLParam(r, "houseID"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, house, start)
}

// DeleteHouse answers 409 while the house still has devices.
func (h *Handler) DeleteHouse(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteHouse(r.Context(), chi.URLParam(r, "houseID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDevices handles GET /api/v1/houses/{houseID}/devices.
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	houseID := chi.URLParam(r, "houseID")
	if _, err := h.db.GetHouse(r.Context(), houseID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	devices, err := h.db.ListDevices(r.Context(), houseID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, devices, start)
}

func (h *Handler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var in models.DeviceInput
	if !decodeJSON(w, r, &in) {
		return
	}
	device, err := h.db.CreateDevice(r.Context(), chi.URLParam(r, "houseID"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, device, start)
}

func (h *Handler) GetDevice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	device, err := h.db.GetDevice(r.Context(), chi.URLParam(r, "deviceID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, device, start)
}

func (h *Handler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var in models.DeviceInput
	if !decodeJSON(w, r, &in) {
		return
	}
	device, err := h.db.UpdateDevice(r.Context(), chi.URLParam(r, "deviceID"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, device, start)
}

func (h *Handler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteDevice(r.Context(), chi.URLParam(r, "deviceID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSensors handles GET /api/v1/devices/{deviceID}/sensors.
func (h *Handler) ListSensors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	deviceID := chi.URLParam(r, "deviceID")
	if _, err := h.db.GetDevice(r.Context(), deviceID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	sensors, err := h.db.ListSensors(r.Context(), deviceID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, sensors, start)
}

// CreateSensor registers a sensor. Devices report readings under the
// sensor id, so the client chooses it; it must satisfy the sensorid rule
// to be usable in URLs and export file names.
func (h *Handler) CreateSensor(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var in models.SensorInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if verr := validation.ValidateVar("id", in.ID, "required,sensorid"); verr != nil {
		respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
		return
	}
	sensor, err := h.db.CreateSensor(r.Context(), chi.URLParam(r, "deviceID"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, sensor, start)
}

func (h *Handler) GetSensor(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sensor, err := h.db.GetSensor(r.Context(), chi.URLParam(r, "sensorID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, sensor, start)
}

// UpdateSensor changes sensor metadata. Cached query results embed sensor
// labels and scale factors, so they expire with the cache TTL.
func (h *Handler) UpdateSensor(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var in models.SensorInput
	if !decodeJSON(w, r, &in) {
		return
	}
	sensor, err := h.db.UpdateSensor(r.Context(), chi.URLParam(r, "sensorID"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, sensor, start)
}

func (h *Handler) DeleteSensor(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteSensor(r.Context(), chi.URLParam(r, "sensorID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LatestSamples returns the newest stored readings of a sensor, newest
// first. ?limit= defaults to 100 and is capped at 1000.
func (h *Handler) LatestSamples(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sensorID := chi.URLParam(r, "sensorID")

	limit := defaultSampleLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = min(n, maxSampleLimit)
	}

	if _, err := h.db.GetSensor(r.Context(), sensorID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	samples, err := h.db.LatestSamples(r.Context(), sensorID, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, samples, start)
}
