// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/sensorboard/internal/config"
	"github.com/tomtom215/sensorboard/internal/metrics"
)

// DefaultTimeout bounds statements whose context has no deadline.
const DefaultTimeout = 30 * time.Second

// DB wraps the DuckDB connection pool.
type DB struct {
	conn    *sql.DB
	cfg     *config.DatabaseConfig
	timeout time.Duration
	now     func() time.Time
}

// New opens (or creates) the database at cfg.Path and ensures the schema.
// Use ":memory:" for a throwaway database.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}
	connStr := fmt.Sprintf("%s?threads=%d&max_memory=%s", cfg.Path, threads, maxMemory)
	if cfg.Path == ":memory:" {
		connStr = fmt.Sprintf("?threads=%d&max_memory=%s", threads, maxMemory)
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	db := newFromConn(conn)
	db.cfg = cfg

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// newFromConn wraps an already opened pool without touching the schema.
func newFromConn(conn *sql.DB) *DB {
	return &DB{
		conn:    conn,
		timeout: DefaultTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the pool for health checks.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// ensureContext applies the default timeout when ctx has no deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.timeout)
}

// psql is the statement builder shared by the store.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// queryRows runs a squirrel SELECT against table and records it.
func (db *DB) queryRows(ctx context.Context, table string, b sq.SelectBuilder) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", table, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// exec runs an INSERT, UPDATE or DELETE builder against table and returns
// rows affected.
func exec(ctx context.Context, e execer, table string, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build statement: %w", err)
	}
	start := time.Now()
	res, err := e.ExecContext(ctx, query, args...)
	metrics.RecordDBQuery(operation(b), table, time.Since(start), err)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil //nolint:nilerr // not every driver reports affected rows
	}
	return n, nil
}

// operation names the statement kind of b for metric labels.
func operation(b sq.Sqlizer) string {
	switch b.(type) {
	case sq.InsertBuilder:
		return "insert"
	case sq.UpdateBuilder:
		return "update"
	case sq.DeleteBuilder:
		return "delete"
	case sq.SelectBuilder:
		return "select"
	default:
		return "exec"
	}
}
