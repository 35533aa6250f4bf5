// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sensorboard/internal/config"
	"github.com/tomtom215/sensorboard/internal/database"
	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/models"
	"github.com/tomtom215/sensorboard/internal/query"
)

// dataSource runs the four data queries. *query.Service and *apiSource
// implement it.
type dataSource interface {
	Grouped(ctx context.Context, q models.GroupedQuery) ([]models.DataSet, error)
	Ungrouped(ctx context.Context, q models.UngroupedQuery) ([]models.DataSet, error)
	Offset(ctx context.Context, q models.OffsetQuery) ([]models.DataSet, error)
	Power(ctx context.Context, q models.PowerQuery) ([]models.DataSet, error)
}

// openSource returns the API source, or a local one when --db is set. The
// returned close function is never nil.
func (o *rootOptions) openSource() (dataSource, func(), error) {
	if o.dbPath == "" {
		return newAPISource(o.apiURL, o.token, nil), func() {}, nil
	}

	db, err := database.New(&config.DatabaseConfig{Path: o.dbPath})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database %s: %w", o.dbPath, err)
	}
	logging.Debug().Str("path", o.dbPath).Msg("Reading from local database")
	closeDB := func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close database")
		}
	}
	return query.NewService(db), closeDB, nil
}

// apiSource runs queries through POST /api/v1/data/{kind}.
type apiSource struct {
	baseURL string
	token   string
	client  *http.Client
}

func newAPISource(baseURL, token string, client *http.Client) *apiSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &apiSource{baseURL: strings.TrimRight(baseURL, "/"), token: token, client: client}
}

func (s *apiSource) Grouped(ctx context.Context, q models.GroupedQuery) ([]models.DataSet, error) {
	return s.post(ctx, "grouped", q)
}

func (s *apiSource) Ungrouped(ctx context.Context, q models.UngroupedQuery) ([]models.DataSet, error) {
	return s.post(ctx, "ungrouped", q)
}

func (s *apiSource) Offset(ctx context.Context, q models.OffsetQuery) ([]models.DataSet, error) {
	return s.post(ctx, "offset", q)
}

func (s *apiSource) Power(ctx context.Context, q models.PowerQuery) ([]models.DataSet, error) {
	return s.post(ctx, "power", q)
}

// dataEnvelope is models.APIResponse with a typed payload.
type dataEnvelope struct {
	Status string           `json:"status"`
	Data   []models.DataSet `json:"data"`
	Error  *models.APIError `json:"error"`
}

func (s *apiSource) post(ctx context.Context, kind string, body interface{}) ([]models.DataSet, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s query: %w", kind, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/data/"+kind, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var env dataEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s query: HTTP %d: unreadable response: %w", kind, resp.StatusCode, err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%s query: HTTP %d: %s: %s", kind, resp.StatusCode, env.Error.Code, env.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || env.Status != "success" {
		return nil, fmt.Errorf("%s query: HTTP %d", kind, resp.StatusCode)
	}
	if env.Data == nil {
		env.Data = []models.DataSet{}
	}
	return env.Data, nil
}
