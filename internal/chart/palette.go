// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package chart

// Palette is an ordered list of CSS colours assigned to datasets by index.
type Palette []string

// DefaultPalette is red, blue, green, grey, orange, purple, yellow, pink,
// black and dark green.
var DefaultPalette = Palette{
	"rgba(255, 99, 132, 1)",
	"rgba(54, 162, 235, 1)",
	"rgba(75, 192, 192, 1)",
	"rgba(201, 203, 207, 1)",
	"rgba(255, 159, 64, 1)",
	"rgba(153, 102, 255, 1)",
	"rgba(255, 205, 86, 1)",
	"rgba(255, 192, 203, 1)",
	"rgba(0, 0, 0, 1)",
	"rgba(0, 100, 0, 1)",
}

// Color returns the colour of dataset i, wrapping around. An empty palette
// falls back to DefaultPalette.
func (p Palette) Color(i int) string {
	if len(p) == 0 {
		p = DefaultPalette
	}
	n := len(p)
	return p[(i%n+n)%n]
}
