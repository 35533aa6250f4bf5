// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package export

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore("", time.Minute)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorePutGet(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	key, err := s.Put(&File{Filename: "a.csv", ContentType: contentTypeCSV, Data: []byte("x,y\n")})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	f, err := s.Get(key, "a.csv")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(f.Data) != "x,y\n" || f.Size != 4 || f.ContentType != contentTypeCSV || f.CreatedAt.IsZero() {
		t.Errorf("file = %+v", f)
	}

	if _, err := s.Get(key, "b.csv"); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong filename: err = %v", err)
	}
	if _, err := s.Get("nope", "a.csv"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown key: err = %v", err)
	}

	if err := s.Delete(key); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(key, "a.csv"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: err = %v", err)
	}
	if err := s.Delete(key); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestStoreKeysAreUnique(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	a, _ := s.Put(&File{Filename: "a"})
	b, _ := s.Put(&File{Filename: "a"})
	if a == "" || a == b {
		t.Errorf("keys %q and %q", a, b)
	}
}

func TestStoreGarbageCollectionInMemory(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	s.collectGarbage()
	if s.String() == "" {
		t.Error("service needs a name")
	}
}
