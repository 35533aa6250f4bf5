// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/sensorboard/internal/models"
)

// SchemaVersion is the current event schema version.
const SchemaVersion = 1

// Topics events are published on.
const (
	TopicSensorReading = "sensor.reading"
	TopicSensorUnknown = "sensor.unknown"
)

// Topics lists every topic the router consumes.
var Topics = []string{TopicSensorReading, TopicSensorUnknown}

// SensorEvent is a reading republished after ingestion. Sensor, device and
// house fields are empty for unknown sensors.
type SensorEvent struct {
	SchemaVersion int       `json:"schemaVersion"`
	EventID       string    `json:"eventId"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`

	DeviceID string `json:"deviceId"`
	SensorID string `json:"sensorId"`

	SensorName  string            `json:"sensorName,omitempty"`
	SensorLabel string            `json:"sensorLabel,omitempty"`
	SensorType  models.SensorType `json:"sensorType,omitempty"`
	Unit        string            `json:"unit,omitempty"`
	HouseID     string            `json:"houseId,omitempty"`
	HouseName   string            `json:"houseName,omitempty"`

	// Value is the reading as posted; ScaledValue has the sensor scale
	// factor applied.
	Value       float64 `json:"value"`
	ScaledValue float64 `json:"scaledValue"`

	CorrelationID string `json:"correlationId,omitempty"`
}

// NewReadingEvent builds a sensor.reading event from a stored sample.
func NewReadingEvent(sample models.Sample, details models.SensorDetails) *SensorEvent {
	scale := details.Sensor.ScaleFactor
	if scale == 0 {
		scale = 1
	}
	return &SensorEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Type:          TopicSensorReading,
		Timestamp:     sample.Timestamp.UTC(),
		DeviceID:      details.Device.ID,
		SensorID:      sample.SensorID,
		SensorName:    details.Sensor.Name,
		SensorLabel:   details.Sensor.Label,
		SensorType:    details.Sensor.Type,
		Unit:          details.Sensor.Unit,
		HouseID:       details.House.ID,
		HouseName:     details.House.Name,
		Value:         sample.Value,
		ScaledValue:   sample.Value * scale,
	}
}

// NewUnknownEvent builds a sensor.unknown event for an unregistered id.
func NewUnknownEvent(deviceID, sensorID string, value float64, at time.Time) *SensorEvent {
	return &SensorEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Type:          TopicSensorUnknown,
		Timestamp:     at.UTC(),
		DeviceID:      deviceID,
		SensorID:      sensorID,
		Value:         value,
		ScaledValue:   value,
	}
}

// Topic returns the topic the event is published on.
func (e *SensorEvent) Topic() string {
	return e.Type
}

// Validate checks the fields every consumer relies on.
func (e *SensorEvent) Validate() error {
	switch {
	case e.EventID == "":
		return &ValidationError{Field: "eventId", Message: "is required"}
	case e.Type != TopicSensorReading && e.Type != TopicSensorUnknown:
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown event type %q", e.Type)}
	case e.SensorID == "":
		return &ValidationError{Field: "sensorId", Message: "is required"}
	case e.Timestamp.IsZero():
		return &ValidationError{Field: "timestamp", Message: "is required"}
	}
	return nil
}

// ValidationError describes an invalid event field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}
