// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/sensorboard/internal/eventprocessor"
	"github.com/tomtom215/sensorboard/internal/models"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(hub, conn)
		hub.Register <- c
		c.Start()
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v", err)
		}
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", hub.GetClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type received struct {
	Type string                      `json:"type"`
	Data *eventprocessor.SensorEvent `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg received
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func reading(sensorID, houseID string) *eventprocessor.SensorEvent {
	return eventprocessor.NewReadingEvent(
		models.Sample{SensorID: sensorID, Timestamp: time.Now(), Value: 1},
		models.SensorDetails{House: models.House{ID: houseID}},
	)
}

func TestHubBroadcastsReadings(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	waitClients(t, hub, 2)

	if err := hub.HandleEvent(context.Background(), reading("s1", "h1")); err != nil {
		t.Fatal(err)
	}
	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if msg.Type != MessageTypeReading || msg.Data == nil || msg.Data.SensorID != "s1" {
			t.Errorf("message = %+v", msg)
		}
	}

	unknown := eventprocessor.NewUnknownEvent("d1", "s9", 1, time.Now())
	_ = hub.HandleEvent(context.Background(), unknown)
	if msg := readMessage(t, a); msg.Type != MessageTypeUnknownSensor {
		t.Errorf("type = %s", msg.Type)
	}
}

func TestHubSubscribeFilter(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitClients(t, hub, 1)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","data":{"sensorIds":["s2"]}}`)); err != nil {
		t.Fatal(err)
	}
	// The ping is answered after the subscribe was applied.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypePong {
		t.Fatalf("type = %s, want pong", msg.Type)
	}

	_ = hub.HandleEvent(context.Background(), reading("s1", ""))
	_ = hub.HandleEvent(context.Background(), reading("s2", ""))
	if msg := readMessage(t, conn); msg.Data == nil || msg.Data.SensorID != "s2" {
		t.Errorf("filtered client got %+v", msg)
	}
}

func TestClientFilter(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if !c.wants("any", "") {
		t.Error("empty filter should accept everything")
	}
	c.SetFilter(Filter{HouseID: "h1"})
	if c.wants("s1", "h2") || !c.wants("s1", "h1") {
		t.Error("house filter not applied")
	}
	c.SetFilter(Filter{SensorIDs: []string{"s1"}})
	if !c.wants("s1", "h9") || c.wants("s2", "h9") {
		t.Error("sensor filter not applied")
	}
}

func TestHubUnregister(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitClients(t, hub, 1)
	_ = conn.Close()
	waitClients(t, hub, 0)
}
