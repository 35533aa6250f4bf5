// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/metrics"
	"github.com/tomtom215/sensorboard/internal/models"
)

// maxErrorBody caps how much of a failed response is kept in HTTPError.
const maxErrorBody = 4 << 10

// Bridge asks the server to generate an export and hands the resulting
// download URL to a Navigator.
type Bridge struct {
	baseURL   string
	client    *http.Client
	token     string
	navigator Navigator
	breaker   *gobreaker.CircuitBreaker[interface{}]
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) BridgeOption {
	return func(b *Bridge) { b.client = c }
}

// WithToken sends a bearer token with every export request.
func WithToken(token string) BridgeOption {
	return func(b *Bridge) { b.token = token }
}

// NewBridge creates a bridge for the API at baseURL.
func NewBridge(baseURL string, nav Navigator, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 60 * time.Second},
		navigator: nav,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.breaker = gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "export-bridge",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// Client errors say nothing about the health of the server.
		IsSuccessful: func(err error) bool {
			var he *HTTPError
			if errors.As(err, &he) {
				return he.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Export circuit breaker state changed")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})
	return b
}

// DownloadData posts opts to the export endpoint and opens the attachment
// URL of the generated file.
func (b *Bridge) DownloadData(ctx context.Context, opts Options) error {
	if opts == nil {
		return errors.New("export options are required")
	}
	res, err := b.breaker.Execute(func() (interface{}, error) {
		return b.post(ctx, opts.endpoint(), opts.body())
	})
	if err != nil {
		return err
	}
	receipt, ok := res.(*models.ExportReceipt)
	if !ok {
		return fmt.Errorf("unexpected export result %T", res)
	}
	return b.navigator.Open(ctx, b.DownloadURL(*receipt, DispositionAttachment))
}

// DownloadURL builds the download address of a receipt.
func (b *Bridge) DownloadURL(r models.ExportReceipt, disposition Disposition) string {
	return fmt.Sprintf("%s/download/%s/%s/%s",
		b.baseURL, url.PathEscape(r.Filename), url.PathEscape(r.DownloadKey), disposition)
}

func (b *Bridge) post(ctx context.Context, path string, body interface{}) (*models.ExportReceipt, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var receipt models.ExportReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("failed to decode export receipt: %w", err)
	}
	if receipt.Filename == "" || receipt.DownloadKey == "" {
		return nil, errors.New("export receipt is missing filename or download key")
	}
	return &receipt, nil
}
