// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package chart

import "html/template"

// Surface is the document a container renders into.
type Surface interface {
	// Inject adds container markup. replace discards whatever the surface
	// held before.
	Inject(markup template.HTML, replace bool) error

	// AppendCanvas places a canvas element with canvasID in the element
	// with bodyID.
	AppendCanvas(bodyID, canvasID string) error

	// SetLoading toggles the skeleton placeholder of a body element.
	SetLoading(bodyID string, loading bool)
}

// Factory creates chart handles bound to a canvas.
type Factory interface {
	New(canvasID string, cfg *Config) (Handle, error)
}

// Handle is a live chart. Config returns the configuration the chart was
// created with. Update runs mutate on that configuration and redraws; the
// handle serializes it against its own readers.
type Handle interface {
	Config() *Config
	Update(mutate func(cfg *Config))
}
