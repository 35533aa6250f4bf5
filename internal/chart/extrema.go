// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package chart

import (
	"math"

	"github.com/tomtom215/sensorboard/internal/models"
)

// MinimumDatasetsValue returns the smallest y across all datasets. It
// returns (0, false) when there are no elements.
func MinimumDatasetsValue(sets []models.DataSet) (float64, bool) {
	return scan(sets, math.Inf(1), func(a, b float64) bool { return a < b })
}

// MaximumDatasetsValue returns the largest y across all datasets. It
// returns (0, false) when there are no elements.
func MaximumDatasetsValue(sets []models.DataSet) (float64, bool) {
	return scan(sets, math.Inf(-1), func(a, b float64) bool { return a > b })
}

func scan(sets []models.DataSet, seed float64, better func(a, b float64) bool) (float64, bool) {
	best := seed
	for i := range sets {
		for _, e := range sets[i].Data {
			if math.IsNaN(e.Y) {
				continue
			}
			if better(e.Y, best) {
				best = e.Y
			}
		}
	}
	if math.IsInf(best, 0) {
		return 0, false
	}
	return best, true
}
