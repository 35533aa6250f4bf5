// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/sensorboard/internal/chart"
	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/models"
	"github.com/tomtom215/sensorboard/internal/websocket"
)

func (h *Handler) upgrader() gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts same-origin dashboards and configured CORS
// origins. A missing Origin is rejected since browsers always send one.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades to the live readings feed.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailble, "live feed unavailable", nil)
		return
	}
	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	client := websocket.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}

// SensorDashboard renders a page with two charts of one sensor: the raw
// readings of the last window as a time series, and the same interval
// aggregated per ?groupBy= (default hour) as bars.
func (h *Handler) SensorDashboard(w http.ResponseWriter, r *http.Request) {
	sensor, err := h.db.GetSensor(r.Context(), chi.URLParam(r, "sensorID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	groupBy := models.Grouping(r.URL.Query().Get("groupBy"))
	if groupBy == "" {
		groupBy = models.GroupByHour
	}
	if !groupBy.Valid() {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "groupBy must be one of hour, day, week, month, year", nil)
		return
	}
	window := h.cfg.Dashboard.Window
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "window must be a positive duration", nil)
			return
		}
		window = d
	}
	if window <= 0 {
		window = 24 * time.Hour
	}

	ctx, cancel := h.queryContext(r.Context())
	defer cancel()

	page, err := h.buildSensorPage(ctx, sensor, groupBy, window)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := page.Render(w); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to render dashboard")
	}
}

func (h *Handler) buildSensorPage(ctx context.Context, sensor *models.Sensor, groupBy models.Grouping, window time.Duration) (*chart.Page, error) {
	end := h.now().UTC()
	start := end.Add(-window)
	data := chart.NewContainerData(start, end)
	ids := []string{sensor.ID}
	format := models.FormatOptions{ApplyScaleFactor: true}

	title := sensor.Label
	if sensor.Unit != "" {
		title = fmt.Sprintf("%s (%s)", sensor.Label, sensor.Unit)
	}
	page := chart.NewPage(title)

	containers := make([]*chart.Container, 0, 2)
	line, err := chart.AddChartContainer(ctx, page, page, chart.Options{
		Title:          "Readings",
		Type:           chart.TypeLine,
		Timeseries:     true,
		AdjustMinimumY: floatPtr(-1),
		AdjustMaximumY: floatPtr(1),
		Actions:        []chart.Action{&chart.Refresh{}},
		ContainerData:  data,
		Location:       h.cfg.Location(),
		Locale:         h.cfg.Dashboard.Locale,
		Data: func(ctx context.Context, d *chart.ContainerData) ([]models.DataSet, error) {
			s, e := d.Interval()
			return h.queries.Ungrouped(ctx, models.UngroupedQuery{SensorIDs: ids, Start: s, End: e, Format: format})
		},
	})
	if err != nil {
		return nil, err
	}
	containers = append(containers, line)

	format.AddMissingTimeSeries = true
	bars, err := chart.AddChartContainer(ctx, page, page, chart.Options{
		Title:         "Per " + string(groupBy),
		Type:          chart.TypeBar,
		Actions:       []chart.Action{&chart.Refresh{}},
		ContainerData: data,
		Location:      h.cfg.Location(),
		Locale:        h.cfg.Dashboard.Locale,
		Data: func(ctx context.Context, d *chart.ContainerData) ([]models.DataSet, error) {
			s, e := d.Interval()
			return h.queries.Grouped(ctx, models.GroupedQuery{SensorIDs: ids, Start: s, End: e, GroupBy: groupBy, Format: format})
		},
	})
	if err != nil {
		return nil, err
	}
	containers = append(containers, bars)

	for _, c := range containers {
		if err := c.WaitFirstLoad(ctx); err != nil {
			return nil, err
		}
	}
	return page, nil
}

func floatPtr(f float64) *float64 { return &f }
