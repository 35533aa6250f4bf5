// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package query

import (
	"github.com/shopspring/decimal"
)

// Round rounds v half away from zero to the given number of decimals.
// A negative decimals value returns v unchanged.
func Round(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	return decimal.NewFromFloat(v).Round(int32(decimals)).InexactFloat64()
}

// applyScaleFactor multiplies v by factor. Zero is treated as 1 so sensors
// created before scale factors existed keep their raw values.
func applyScaleFactor(v, factor float64) float64 {
	if factor == 0 {
		return v
	}
	return decimal.NewFromFloat(v).Mul(decimal.NewFromFloat(factor)).InexactFloat64()
}
