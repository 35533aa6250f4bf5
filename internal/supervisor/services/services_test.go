// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeServer struct {
	listenErr error
	stop      chan struct{}
	once      sync.Once
	shutdowns atomic.Int32
}

func newFakeServer(listenErr error) *fakeServer {
	return &fakeServer{listenErr: listenErr, stop: make(chan struct{})}
}

func (s *fakeServer) ListenAndServe() error {
	if s.listenErr != nil {
		return s.listenErr
	}
	<-s.stop
	return http.ErrServerClosed
}

func (s *fakeServer) Shutdown(context.Context) error {
	s.shutdowns.Add(1)
	s.once.Do(func() { close(s.stop) })
	return nil
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(nil)
	svc := NewHTTPServerService(srv, 0)
	if svc.shutdownTimeout != 10*time.Second || svc.String() != "http-server" {
		t.Errorf("service = %+v", svc)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
	if srv.shutdowns.Load() != 1 {
		t.Errorf("Shutdown called %d times", srv.shutdowns.Load())
	}
}

func TestHTTPServerServiceListenFailure(t *testing.T) {
	t.Parallel()

	svc := NewHTTPServerService(newFakeServer(errors.New("address in use")), time.Second)
	err := svc.Serve(context.Background())
	if err == nil || !strings.Contains(err.Error(), "address in use") {
		t.Errorf("Serve() = %v", err)
	}
}

type fakeHub struct{ ran atomic.Bool }

func (h *fakeHub) RunWithContext(ctx context.Context) error {
	h.ran.Store(true)
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubService(t *testing.T) {
	t.Parallel()

	hub := &fakeHub{}
	svc := NewWebSocketHubService(hub)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v", err)
	}
	if !hub.ran.Load() || svc.String() != "websocket-hub" {
		t.Error("hub not run")
	}
}

type fakeRouter struct {
	startErr  error
	running   atomic.Bool
	shutdowns atomic.Int32
}

func (r *fakeRouter) Start(context.Context) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.running.Store(true)
	return nil
}

func (r *fakeRouter) Shutdown(context.Context) {
	r.shutdowns.Add(1)
	r.running.Store(false)
}

func (r *fakeRouter) IsRunning() bool { return r.running.Load() }

func TestEventRouterServiceLifecycle(t *testing.T) {
	t.Parallel()

	router := &fakeRouter{}
	svc := NewEventRouterService(router, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !router.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("router never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v", err)
	}
	if router.shutdowns.Load() != 1 || router.IsRunning() {
		t.Errorf("shutdowns = %d running = %v", router.shutdowns.Load(), router.IsRunning())
	}
}

func TestEventRouterServiceStartFailure(t *testing.T) {
	t.Parallel()

	svc := NewEventRouterService(&fakeRouter{startErr: errors.New("no subscriber")}, 0)
	if err := svc.Serve(context.Background()); err == nil || !strings.Contains(err.Error(), "no subscriber") {
		t.Errorf("Serve() = %v", err)
	}
}

func TestEventRouterServiceDetectsDeadRouter(t *testing.T) {
	t.Parallel()

	router := &fakeRouter{}
	svc := NewEventRouterService(router, time.Second)
	svc.pollInterval = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- svc.Serve(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for !router.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("router never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	router.running.Store(false)

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "stopped unexpectedly") {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("dead router not detected")
	}
	if router.shutdowns.Load() != 1 {
		t.Errorf("dead router not released, shutdowns = %d", router.shutdowns.Load())
	}
}
