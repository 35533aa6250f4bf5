// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tomtom215/sensorboard/internal/models"
)

func TestPageRender(t *testing.T) {
	t.Parallel()

	page := NewPage("Boiler </script>")
	c := newContainer(t, page, Options{
		Title:  "Flow",
		Legend: true,
		Data: staticData(models.DataSet{
			ID:   "s1",
			Name: "</script><b>",
			Data: []models.DataElement{{X: "a", Y: 1}},
		}),
	})

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		c.IDs().Body,
		c.IDs().Canvas,
		`"pointRadius":0`,
		chartJSURL,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Count(out, "</script>") != 4 {
		t.Errorf("dataset label or title broke out of a script block:\n%s", out)
	}
}

func TestPageAppendCanvasRequiresBody(t *testing.T) {
	t.Parallel()

	page := NewPage("t")
	if err := page.AppendCanvas("missing_body", "c1"); err == nil {
		t.Error("expected error for unknown body")
	}
	if err := page.Inject(`<div id="b1"></div>`, false); err != nil {
		t.Fatal(err)
	}
	if err := page.AppendCanvas("b1", "c1"); err != nil {
		t.Fatal(err)
	}
	if err := page.AppendCanvas("b1", "c1"); err == nil {
		t.Error("duplicate canvas accepted")
	}
	if _, err := page.New("c1", &Config{}); err != nil {
		t.Fatal(err)
	}
	if _, err := page.New("c1", &Config{}); err == nil {
		t.Error("duplicate chart accepted")
	}
}
