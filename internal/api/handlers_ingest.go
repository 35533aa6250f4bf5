// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/sensorboard/internal/auth"
	"github.com/tomtom215/sensorboard/internal/eventprocessor"
	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/metrics"
	"github.com/tomtom215/sensorboard/internal/models"
)

// Ingest stores a batch of readings from one device.
//
// Readings for sensor ids that are not registered on the posting device
// are not stored; they are reported back in IngestResult.Unknown and
// published as sensor.unknown events so an operator can register them.
// Event publishing is best effort: once samples are committed a publish
// failure is logged and the request still succeeds.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req models.IngestRequest
	if !decodeJSON(w, r, &req) {
		metrics.RecordIngest("invalid", 0, 0)
		return
	}

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok || (claims.Role != auth.RoleAdmin && !claims.IsDevice(req.DeviceID)) {
		metrics.RecordIngest("forbidden", 0, 0)
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, "token does not belong to this device", nil)
		return
	}
	if !h.limiter.Allow(req.DeviceID) {
		metrics.RecordIngest("throttled", 0, 0)
		metrics.APIRateLimitHits.WithLabelValues("ingest").Inc()
		w.Header().Set("Retry-After", "1")
		respondError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "device is sending too fast", nil)
		return
	}

	device, err := h.db.GetDevice(ctx, req.DeviceID)
	if err != nil {
		metrics.RecordIngest("error", 0, 0)
		respondServiceError(w, r, err)
		return
	}
	if !device.Active {
		metrics.RecordIngest("forbidden", 0, 0)
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, "device is not active", nil)
		return
	}

	ids := make([]string, 0, len(req.Data))
	for _, reading := range req.Data {
		ids = append(ids, reading.SensorID)
	}
	details, err := h.db.LookupSensorDetails(ctx, ids)
	if err != nil {
		metrics.RecordIngest("error", 0, 0)
		respondServiceError(w, r, err)
		return
	}

	now := h.now().UTC()
	samples := make([]models.Sample, 0, len(req.Data))
	var known []models.SensorDetails
	var unknown []models.IngestReading
	for _, reading := range req.Data {
		det, ok := details[reading.SensorID]
		if !ok || det.Device.ID != device.ID {
			unknown = append(unknown, reading)
			continue
		}
		samples = append(samples, models.Sample{SensorID: reading.SensorID, Timestamp: now, Value: *reading.Value})
		known = append(known, det)
	}

	if err := h.db.InsertSamples(ctx, samples); err != nil {
		metrics.RecordIngest("error", 0, 0)
		respondServiceError(w, r, err)
		return
	}
	if err := h.db.TouchDevice(ctx, device.ID, now); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("device_id", device.ID).Msg("Failed to record device last-seen")
	}

	h.publishReadings(ctx, device.ID, samples, known, unknown, now)

	result := models.IngestResult{Stored: len(samples)}
	for _, u := range unknown {
		result.Unknown = append(result.Unknown, u.SensorID)
	}
	metrics.RecordIngest("ok", result.Stored, len(result.Unknown))
	respondData(w, http.StatusOK, result, start)
}

func (h *Handler) publishReadings(ctx context.Context, deviceID string, samples []models.Sample, known []models.SensorDetails, unknown []models.IngestReading, at time.Time) {
	if h.publisher == nil {
		return
	}
	correlationID := logging.CorrelationIDFromContext(ctx)

	events := make([]*eventprocessor.SensorEvent, 0, len(samples)+len(unknown))
	for i, s := range samples {
		events = append(events, eventprocessor.NewReadingEvent(s, known[i]))
	}
	for _, u := range unknown {
		events = append(events, eventprocessor.NewUnknownEvent(deviceID, u.SensorID, *u.Value, at))
	}

	for _, ev := range events {
		ev.CorrelationID = correlationID
		if err := h.publisher.PublishEvent(ctx, ev); err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("topic", ev.Topic()).
				Str("sensor_id", ev.SensorID).
				Msg("Failed to publish sensor event")
		}
	}
}
