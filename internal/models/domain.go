// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package models

import (
	"time"
)

// House groups the devices installed at one address.
type House struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Device posts readings for the sensors attached to it.
type Device struct {
	ID        string     `json:"id"`
	HouseID   string     `json:"houseId"`
	Name      string     `json:"name"`
	Active    bool       `json:"active"`
	LastPing  *time.Time `json:"lastPing,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// SensorType describes what a sensor measures.
type SensorType string

const (
	SensorTemperature SensorType = "temp"
	SensorHumidity    SensorType = "hum"
	SensorPower       SensorType = "power"
	SensorGauge       SensorType = "gauge"
	SensorCounter     SensorType = "counter"
)

// Sensor is identified by the hardware id the device reports.
type Sensor struct {
	ID          string     `json:"id"`
	DeviceID    string     `json:"deviceId"`
	Name        string     `json:"name"`
	Label       string     `json:"label"`
	Type        SensorType `json:"type"`
	Unit        string     `json:"unit,omitempty"`
	ScaleFactor float64    `json:"scaleFactor"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Sample is one stored reading.
type Sample struct {
	SensorID  string    `json:"sensorId"`
	Timestamp time.Time `json:"ts"`
	Value     float64   `json:"value"`
}

// HouseInput creates or renames a house.
type HouseInput struct {
	Name string `json:"name" validate:"required,min=1,max=128"`
}

// DeviceInput creates or updates a device.
type DeviceInput struct {
	Name   string `json:"name" validate:"required,min=1,max=128"`
	Active *bool  `json:"active,omitempty"`
}

// SensorInput creates or updates a sensor. ID is only read on create.
type SensorInput struct {
	ID          string     `json:"id,omitempty" validate:"omitempty,min=1,max=64,printascii"`
	Name        string     `json:"name" validate:"required,min=1,max=128"`
	Label       string     `json:"label" validate:"required,min=1,max=64"`
	Type        SensorType `json:"type" validate:"required,oneof=temp hum power gauge counter"`
	Unit        string     `json:"unit,omitempty" validate:"max=16"`
	ScaleFactor float64    `json:"scaleFactor,omitempty"`
}

// IngestRequest is the body devices post with their latest readings.
type IngestRequest struct {
	DeviceID string          `json:"deviceId" validate:"required,max=64"`
	Data     []IngestReading `json:"data" validate:"required,min=1,max=100,dive"`
}

// IngestReading is one reading in an IngestRequest.
type IngestReading struct {
	SensorID string   `json:"sensorId" validate:"required,max=64"`
	Value    *float64 `json:"sensorValue" validate:"required"`
}

// IngestResult reports what happened to an IngestRequest.
type IngestResult struct {
	Stored  int      `json:"stored"`
	Unknown []string `json:"unknown,omitempty"`
}

// PowerPriceDay is the 24 hourly prices of one date.
type PowerPriceDay struct {
	Date     string    `json:"date"`
	Currency string    `json:"currency" validate:"omitempty,len=3"`
	Prices   []float64 `json:"prices" validate:"required,len=24"`
}

// SensorDetails joins a sensor with the device and house it belongs to.
type SensorDetails struct {
	Sensor Sensor `json:"sensor"`
	Device Device `json:"device"`
	House  House  `json:"house"`
}
