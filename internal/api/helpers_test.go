// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sensorboard/internal/auth"
	"github.com/tomtom215/sensorboard/internal/authz"
	"github.com/tomtom215/sensorboard/internal/cache"
	"github.com/tomtom215/sensorboard/internal/config"
	"github.com/tomtom215/sensorboard/internal/database"
	"github.com/tomtom215/sensorboard/internal/eventprocessor"
	"github.com/tomtom215/sensorboard/internal/export"
	"github.com/tomtom215/sensorboard/internal/models"
	"github.com/tomtom215/sensorboard/internal/query"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "correct horse battery staple"
)

// testDBSemaphore serializes DuckDB use across tests.
var testDBSemaphore = make(chan struct{}, 1)

var (
	credsOnce sync.Once
	creds     *auth.Credentials
	credsErr  error
)

// testCredentials hashes the admin password once; bcrypt is slow.
func testCredentials(t *testing.T) *auth.Credentials {
	t.Helper()
	credsOnce.Do(func() {
		creds, credsErr = auth.NewCredentials(testAdminUser, testAdminPassword)
	})
	if credsErr != nil {
		t.Fatalf("NewCredentials: %v", credsErr)
	}
	return creds
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*eventprocessor.SensorEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, e *eventprocessor.SensorEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Events() []*eventprocessor.SensorEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventprocessor.SensorEvent(nil), p.events...)
}

type testServer struct {
	t         *testing.T
	handler   *Handler
	router    http.Handler
	db        *database.DB
	publisher *fakePublisher
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			AuthMode:        auth.ModeJWT,
			JWTSecret:       "test-secret-that-is-long-enough-for-hs256",
			SessionTimeout:  time.Hour,
			DeviceTokenTTL:  time.Hour,
			CORSOrigins:     []string{"https://dash.example"},
			RateLimitReqs:   1000,
			RateLimitWindow: time.Minute,
			IngestRate:      100,
			IngestBurst:     100,
		},
		Query:     config.QueryConfig{CacheTTL: time.Minute, DefaultDecimals: 2, Timeout: 10 * time.Second},
		Dashboard: config.DashboardConfig{TimeZone: "UTC", Locale: "en", Window: 24 * time.Hour},
	}
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	c := cache.New(cfg.Query.CacheTTL)
	t.Cleanup(c.Close)
	queries := query.NewService(db, query.WithCache(c), query.WithDefaultDecimals(cfg.Query.DefaultDecimals))

	store, err := export.OpenStore("", time.Minute)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	enforcer, err := authz.NewEnforcer("")
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}

	pub := &fakePublisher{}
	h := NewHandler(HandlerDeps{
		DB:          db,
		Queries:     queries,
		Exports:     export.NewService(queries, store, 1000),
		Publisher:   pub,
		JWT:         jwtManager,
		Credentials: testCredentials(t),
		Config:      cfg,
	})
	router := NewRouter(h,
		auth.NewMiddleware(jwtManager, cfg.Security.AuthMode),
		authz.NewMiddleware(enforcer),
		NewChiMiddleware(ChiMiddlewareConfigFrom(&cfg.Security)),
	)
	return &testServer{t: t, handler: h, router: router.SetupChi(), db: db, publisher: pub}
}

func (s *testServer) adminToken() string {
	s.t.Helper()
	token, _, err := s.handler.jwt.GenerateAdminToken(testAdminUser)
	if err != nil {
		s.t.Fatalf("GenerateAdminToken: %v", err)
	}
	return token
}

func (s *testServer) deviceToken(deviceID string) string {
	s.t.Helper()
	token, _, err := s.handler.jwt.GenerateDeviceToken(deviceID)
	if err != nil {
		s.t.Fatalf("GenerateDeviceToken: %v", err)
	}
	return token
}

// do sends a request; body is JSON-encoded unless it is already a string.
func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v\nbody: %s", err, rec.Body.String())
	}
	if into != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, into); err != nil {
			t.Fatalf("decode data: %v\nbody: %s", err, rec.Body.String())
		}
	}
	return env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d\nbody: %s", rec.Code, want, rec.Body.String())
	}
}

// seedSensor creates house -> device -> sensor through the API and returns
// the device id.
func (s *testServer) seedSensor(sensorID string, active bool) string {
	s.t.Helper()
	token := s.adminToken()

	rec := s.do(http.MethodPost, "/api/v1/houses", token, models.HouseInput{Name: "Home"})
	expectStatus(s.t, rec, http.StatusCreated)
	var house models.House
	decodeEnvelope(s.t, rec, &house)

	rec = s.do(http.MethodPost, "/api/v1/houses/"+house.ID+"/devices", token,
		models.DeviceInput{Name: "Boiler room", Active: &active})
	expectStatus(s.t, rec, http.StatusCreated)
	var device models.Device
	decodeEnvelope(s.t, rec, &device)

	rec = s.do(http.MethodPost, "/api/v1/devices/"+device.ID+"/sensors", token, models.SensorInput{
		ID:          sensorID,
		Name:        "Flow temperature",
		Label:       "Flow",
		Type:        models.SensorTemperature,
		Unit:        "C",
		ScaleFactor: 0.1,
	})
	expectStatus(s.t, rec, http.StatusCreated)
	return device.ID
}
