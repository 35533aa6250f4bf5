// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package models

import (
	"time"
)

// ExportSensorDataRequest is posted to /api/v1/export/sensordata.
type ExportSensorDataRequest struct {
	Start            time.Time `json:"start" validate:"required"`
	End              time.Time `json:"end" validate:"required,gtfield=Start"`
	Type             string    `json:"type" validate:"required,oneof=grouped ungrouped"`
	SensorIDs        []string  `json:"sensorIds" validate:"required,min=1,max=50,dive,required,max=64"`
	ApplyScaleFactor *bool     `json:"applyScaleFactor,omitempty"`
	GroupBy          Grouping  `json:"groupBy,omitempty" validate:"omitempty,oneof=hour day week month year"`
	Output           string    `json:"output" validate:"required,oneof=excel csv"`
}

// ExportPowerRequest is posted to /api/v1/export/powerprices.
type ExportPowerRequest struct {
	Dates  []string `json:"dates" validate:"required,min=1,max=31,dive,datetime=2006-01-02"`
	Type   string   `json:"type" validate:"required,eq=power"`
	Output string   `json:"output" validate:"required,oneof=excel csv"`
}

// ExportReceipt names a generated file and the key that unlocks it.
type ExportReceipt struct {
	Filename    string `json:"filename"`
	DownloadKey string `json:"downloadKey"`
}
