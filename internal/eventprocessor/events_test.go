// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package eventprocessor

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/sensorboard/internal/models"
)

func TestNewReadingEvent(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	details := models.SensorDetails{
		Sensor: models.Sensor{ID: "s1", Name: "Boiler", Label: "boiler", Type: models.SensorTemperature, Unit: "C", ScaleFactor: 0.5},
		Device: models.Device{ID: "d1"},
		House:  models.House{ID: "h1", Name: "Home"},
	}
	e := NewReadingEvent(models.Sample{SensorID: "s1", Timestamp: at, Value: 40}, details)

	if e.Topic() != TopicSensorReading || e.EventID == "" || e.SchemaVersion != SchemaVersion {
		t.Errorf("event = %+v", e)
	}
	if e.ScaledValue != 20 || e.Value != 40 {
		t.Errorf("values = %v, %v", e.Value, e.ScaledValue)
	}
	if e.Timestamp.Location() != time.UTC || !e.Timestamp.Equal(at) {
		t.Errorf("timestamp = %v", e.Timestamp)
	}
	if e.HouseName != "Home" || e.DeviceID != "d1" || e.Unit != "C" {
		t.Errorf("enrichment missing: %+v", e)
	}

	zero := NewReadingEvent(models.Sample{SensorID: "s1", Timestamp: at, Value: 3}, models.SensorDetails{})
	if zero.ScaledValue != 3 {
		t.Errorf("zero scale factor should count as 1, got %v", zero.ScaledValue)
	}
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	valid := NewUnknownEvent("d1", "s9", 1, time.Now())
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name  string
		mod   func(e *SensorEvent)
		field string
	}{
		{"no id", func(e *SensorEvent) { e.EventID = "" }, "eventId"},
		{"bad type", func(e *SensorEvent) { e.Type = "sensor.other" }, "type"},
		{"no sensor", func(e *SensorEvent) { e.SensorID = "" }, "sensorId"},
		{"no time", func(e *SensorEvent) { e.Timestamp = time.Time{} }, "timestamp"},
	}
	for _, tt := range tests {
		e := *valid
		tt.mod(&e)
		var ve *ValidationError
		if err := e.Validate(); !errors.As(err, &ve) || ve.Field != tt.field {
			t.Errorf("%s: err = %v", tt.name, err)
		}
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	t.Parallel()

	e := NewUnknownEvent("d1", "s9", 2.5, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	data, err := SerializeEvent(e)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DeserializeEvent(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.EventID != e.EventID || got.SensorID != "s9" || got.Value != 2.5 || !got.Timestamp.Equal(e.Timestamp) {
		t.Errorf("round trip = %+v", got)
	}

	e.SensorID = ""
	if _, err := SerializeEvent(e); err == nil {
		t.Error("invalid event serialized")
	}
	if _, err := DeserializeEvent([]byte("{")); err == nil {
		t.Error("malformed payload decoded")
	}
}
