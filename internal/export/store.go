// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/sensorboard/internal/logging"
)

// Key prefixes for generated files.
const (
	metaPrefix = "export:meta:"
	dataPrefix = "export:data:"
)

// DefaultTTL is how long a generated file stays downloadable.
const DefaultTTL = 15 * time.Minute

// File is a generated export.
type File struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
	Data        []byte    `json:"-"`
}

// Store keeps generated files in badger under random download keys.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenStore opens a file store at path. An empty path keeps files in memory.
func OpenStore(path string, ttl time.Duration) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{logging.WithComponent("badger")})
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open export store: %w", err)
	}
	return NewStore(db, ttl), nil
}

// NewStore wraps an open badger database.
func NewStore(db *badger.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{db: db, ttl: ttl}
}

// Put stores a file and returns its download key.
func (s *Store) Put(f *File) (string, error) {
	key := uuid.New().String()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	f.Size = len(f.Data)
	meta, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to encode export metadata: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(badger.NewEntry([]byte(dataPrefix+key), f.Data).WithTTL(s.ttl)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry([]byte(metaPrefix+key), meta).WithTTL(s.ttl))
	})
	if err != nil {
		return "", fmt.Errorf("failed to store export: %w", err)
	}
	return key, nil
}

// Get returns the file stored under key. The filename must match the one
// it was stored with.
func (s *Store) Get(key, filename string) (*File, error) {
	var f File
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &f)
		}); err != nil {
			return fmt.Errorf("failed to decode export metadata: %w", err)
		}
		if f.Filename != filename {
			return ErrNotFound
		}

		item, err = txn.Get([]byte(dataPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		f.Data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Delete removes a file. Unknown keys are ignored.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range []string{metaPrefix + key, dataPrefix + key} {
			if err := txn.Delete([]byte(k)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Serve runs value log garbage collection until ctx is done. It implements
// suture.Service.
func (s *Store) Serve(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collectGarbage()
		}
	}
}

func (s *Store) collectGarbage() {
	for {
		err := s.db.RunValueLogGC(0.5)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			return
		default:
			logging.Warn().Err(err).Msg("Export store garbage collection failed")
			return
		}
	}
}

func (s *Store) String() string { return "export-store-gc" }

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(format, args...)
}
