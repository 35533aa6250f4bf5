// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/models"
	"github.com/tomtom215/sensorboard/internal/validation"
)

// Query kinds accepted by POST /api/v1/data/{kind}.
const (
	kindGrouped   = "grouped"
	kindUngrouped = "ungrouped"
	kindOffset    = "offset"
	kindPower     = "power"
)

// Data runs one of the dataset queries. The response data is a list of
// models.DataSet; Metadata.Cached is set when every dataset came from the
// query cache.
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var run func(ctx context.Context) ([]models.DataSet, error)
	switch kind := chi.URLParam(r, "kind"); kind {
	case kindGrouped:
		var q models.GroupedQuery
		if !decodeJSON(w, r, &q) {
			return
		}
		run = func(ctx context.Context) ([]models.DataSet, error) { return h.queries.Grouped(ctx, q) }
	case kindUngrouped:
		var q models.UngroupedQuery
		if !decodeJSON(w, r, &q) {
			return
		}
		run = func(ctx context.Context) ([]models.DataSet, error) { return h.queries.Ungrouped(ctx, q) }
	case kindOffset:
		var q models.OffsetQuery
		if !decodeJSON(w, r, &q) {
			return
		}
		run = func(ctx context.Context) ([]models.DataSet, error) { return h.queries.Offset(ctx, q) }
	case kindPower:
		var q models.PowerQuery
		if !decodeJSON(w, r, &q) {
			return
		}
		run = func(ctx context.Context) ([]models.DataSet, error) { return h.queries.Power(ctx, q) }
	default:
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "unknown query kind "+sanitizeLogValue(kind), nil)
		return
	}

	ctx, cancel := h.queryContext(r.Context())
	defer cancel()

	sets, err := run(ctx)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	cached := len(sets) > 0
	for _, s := range sets {
		cached = cached && s.FromCache
	}
	writeJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   sets,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      cached,
		},
	})
}

// powerPriceBody is the PUT body; the date comes from the path.
type powerPriceBody struct {
	Currency string    `json:"currency" validate:"omitempty,len=3"`
	Prices   []float64 `json:"prices" validate:"required,len=24"`
}

func dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := chi.URLParam(r, "date")
	if verr := validation.ValidateVar("date", date, "required,datetime=2006-01-02"); verr != nil {
		respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
		return "", false
	}
	return date, true
}

// PutPowerPrices stores the 24 hourly prices of a date and drops cached
// power queries.
func (h *Handler) PutPowerPrices(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	var body powerPriceBody
	if !decodeJSON(w, r, &body) {
		return
	}

	day := models.PowerPriceDay{Date: date, Currency: body.Currency, Prices: body.Prices}
	if err := h.db.UpsertPowerPrices(r.Context(), day); err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.queries.InvalidatePower()
	logging.Ctx(r.Context()).Info().Str("date", date).Msg("Power prices stored")
	respondData(w, http.StatusOK, day, start)
}

// GetPowerPrices returns the stored prices of a date.
func (h *Handler) GetPowerPrices(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	day, err := h.db.GetPowerPrices(r.Context(), date)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, day, start)
}
