// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package api

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/sensorboard/internal/export"
	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/metrics"
	"github.com/tomtom215/sensorboard/internal/models"
)

// Export kinds accepted by POST /api/v1/export/{kind}.
const (
	exportSensorData  = "sensordata"
	exportPowerPrices = "powerprices"
)

// Export generates a file and answers with the bare receipt. The client
// then fetches /download/{filename}/{downloadKey}/{disposition}.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.queryContext(r.Context())
	defer cancel()

	var (
		receipt *models.ExportReceipt
		err     error
	)
	switch kind := chi.URLParam(r, "kind"); kind {
	case exportSensorData:
		var req models.ExportSensorDataRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		receipt, err = h.exports.SensorData(ctx, req)
	case exportPowerPrices:
		var req models.ExportPowerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		receipt, err = h.exports.PowerPrices(ctx, req)
	default:
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "unknown export kind "+sanitizeLogValue(kind), nil)
		return
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// Download serves a generated file. The key is the only credential, so
// unknown keys and mismatched file names both answer 404.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	key := chi.URLParam(r, "downloadKey")
	disposition := export.Disposition(chi.URLParam(r, "disposition"))

	if !disposition.Valid() {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "disposition must be attachment or inline", nil)
		return
	}

	file, err := h.exports.Download(key, filename)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	cd := mime.FormatMediaType(string(disposition), map[string]string{"filename": file.Filename})
	if cd == "" {
		cd = string(disposition)
	}
	hdr := w.Header()
	hdr.Set("Content-Type", file.ContentType)
	hdr.Set("Content-Disposition", cd)
	hdr.Set("Content-Length", strconv.Itoa(len(file.Data)))
	hdr.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Download interrupted")
		return
	}
	metrics.DownloadsServed.WithLabelValues(string(disposition)).Inc()
}
