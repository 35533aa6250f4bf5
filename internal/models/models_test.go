// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package models

import (
	"testing"
	"time"
)

func TestDataSetLabel(t *testing.T) {
	t.Parallel()

	named := DataSet{ID: "s1", Name: "Temp"}
	if named.Label() != "Temp" {
		t.Errorf("Label() = %q, want Temp", named.Label())
	}
	unnamed := DataSet{ID: "s1"}
	if unnamed.Label() != "s1" {
		t.Errorf("Label() = %q, want s1", unnamed.Label())
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 1, 1, 1, 30, 0, 0, loc)
	s := FormatTimestamp(ts)
	if s != "2024-01-01T00:30:00.000Z" {
		t.Fatalf("FormatTimestamp() = %q", s)
	}
	back, err := ParseTimestamp(s)
	if err != nil {
		t.Fatalf("ParseTimestamp() error = %v", err)
	}
	if !back.Equal(ts) || back.Location() != time.UTC {
		t.Errorf("ParseTimestamp() = %v", back)
	}

	if _, err := ParseTimestamp("2024-01-01T00:30:00+01:00"); err != nil {
		t.Errorf("RFC 3339 should parse: %v", err)
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestGroupingValid(t *testing.T) {
	t.Parallel()

	for _, g := range []Grouping{GroupByHour, GroupByDay, GroupByWeek, GroupByMonth, GroupByYear} {
		if !g.Valid() {
			t.Errorf("%s should be valid", g)
		}
	}
	if Grouping("minute").Valid() {
		t.Error("minute is not a supported grouping")
	}
}

func TestCloneDataSetsIsDeep(t *testing.T) {
	t.Parallel()

	orig := []DataSet{{ID: "a", Data: []DataElement{{X: "x", Y: 1}}}}
	clone := CloneDataSets(orig)
	clone[0].FromCache = true
	clone[0].Data[0].Y = 99

	if orig[0].FromCache || orig[0].Data[0].Y != 1 {
		t.Errorf("clone mutated the original: %+v", orig[0])
	}
}
