// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

// Package config loads Sensorboard settings from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"time"
)

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Security  SecurityConfig  `koanf:"security"`
	NATS      NATSConfig      `koanf:"nats"`
	Export    ExportConfig    `koanf:"export"`
	Query     QueryConfig     `koanf:"query"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`

	// SlowRequestThreshold logs requests slower than this at warn level.
	SlowRequestThreshold time.Duration `koanf:"slow_request_threshold"`
}

// DatabaseConfig configures the DuckDB sample store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// SecurityConfig covers authentication, CORS and rate limiting.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // jwt or none
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	DeviceTokenTTL    time.Duration `koanf:"device_token_ttl"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// IngestRate is the sustained readings-post rate allowed per device,
	// in requests per second, with IngestBurst headroom.
	IngestRate  float64 `koanf:"ingest_rate"`
	IngestBurst int     `koanf:"ingest_burst"`

	// PolicyPath is a casbin policy CSV replacing the built-in policy.
	PolicyPath string `koanf:"policy_path"`
}

// NATSConfig configures event republishing. When Enabled is false events are
// delivered over an in-process channel instead.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	StreamName     string        `koanf:"stream_name"`
	DurableName    string        `koanf:"durable_name"`
	RetentionDays  int           `koanf:"retention_days"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`
}

// ExportConfig controls generated download files.
type ExportConfig struct {
	// StorePath is the badger directory; empty keeps files in memory.
	StorePath string        `koanf:"store_path"`
	TTL       time.Duration `koanf:"ttl"`
	MaxRows   int           `koanf:"max_rows"`
}

// QueryConfig tunes the time-series query engine.
type QueryConfig struct {
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	DefaultDecimals int           `koanf:"default_decimals"`
	Timeout         time.Duration `koanf:"timeout"`
}

// DashboardConfig controls server-rendered chart pages.
type DashboardConfig struct {
	TimeZone string        `koanf:"timezone"`
	Locale   string        `koanf:"locale"`
	Window   time.Duration `koanf:"window"`
}

// LoggingConfig is passed to logging.Init.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, config file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Location resolves the dashboard time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.Dashboard.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Dashboard.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
