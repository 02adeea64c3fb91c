// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of New().
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Supported data source kinds.
const (
	SourceBuiltin = "builtin"
	SourceHTTP    = "http"
	SourceFile    = "file"
	SourceSQLite  = "sqlite"
)

// Supported behaviours when the configured source cannot be loaded.
const (
	FallbackRetain  = "retain"
	FallbackBuiltin = "builtin"
	FallbackEmpty   = "empty"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// PageSize is the number of rows per ranking page.
	PageSize int `koanf:"page_size"`

	// SourceKind selects where snapshots come from: builtin, http, file, sqlite.
	SourceKind string `koanf:"source_kind"`

	// SourceURL is the ranking endpoint for the http source.
	SourceURL string `koanf:"source_url"`

	// SourceTimeoutMS bounds one http fetch.
	SourceTimeoutMS int `koanf:"source_timeout_ms"`

	// SourceRatePerSec throttles outbound http fetches.
	SourceRatePerSec float64 `koanf:"source_rate_per_sec"`

	// SourceFile is the YAML or JSON snapshot file for the file source.
	SourceFile string `koanf:"source_file"`

	// DBPath is the SQLite database for the sqlite source.
	DBPath string `koanf:"db_path"`

	// SeedFile, when set with the sqlite source, is imported into an empty table at startup.
	SeedFile string `koanf:"seed_file"`

	// Fallback decides what is served when a load fails: retain, builtin, empty.
	Fallback string `koanf:"fallback"`

	// ReloadCron is a cron expression for periodic reloads. Empty disables it.
	ReloadCron string `koanf:"reload_cron"`

	// ReloadRatePerMin caps manual POST /reload requests.
	ReloadRatePerMin int `koanf:"reload_rate_per_min"`

	// SessionLimit bounds the number of live viewer sessions.
	SessionLimit int `koanf:"session_limit"`

	// CacheSize bounds the memoized view-model cache.
	CacheSize int `koanf:"cache_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		PageSize:         10,
		SourceKind:       SourceBuiltin,
		SourceTimeoutMS:  5000,
		SourceRatePerSec: 1,
		DBPath:           "followrank.db",
		Fallback:         FallbackRetain,
		ReloadRatePerMin: 6,
		SessionLimit:     10_000,
		CacheSize:        1024,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page_size must be positive, got %d", ErrInvalidConfig, c.PageSize)
	}
	switch c.SourceKind {
	case SourceBuiltin:
	case SourceHTTP:
		if c.SourceURL == "" {
			return fmt.Errorf("%w: source_url is required for the http source", ErrInvalidConfig)
		}
	case SourceFile:
		if c.SourceFile == "" {
			return fmt.Errorf("%w: source_file is required for the file source", ErrInvalidConfig)
		}
	case SourceSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("%w: db_path is required for the sqlite source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source_kind %q", ErrInvalidConfig, c.SourceKind)
	}
	switch c.Fallback {
	case FallbackRetain, FallbackBuiltin, FallbackEmpty:
	default:
		return fmt.Errorf("%w: unknown fallback %q", ErrInvalidConfig, c.Fallback)
	}
	if c.SourceTimeoutMS <= 0 {
		return fmt.Errorf("%w: source_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.SourceRatePerSec <= 0 {
		return fmt.Errorf("%w: source_rate_per_sec must be positive", ErrInvalidConfig)
	}
	if c.ReloadRatePerMin <= 0 {
		return fmt.Errorf("%w: reload_rate_per_min must be positive", ErrInvalidConfig)
	}
	if c.SessionLimit <= 0 {
		return fmt.Errorf("%w: session_limit must be positive", ErrInvalidConfig)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size must not be negative", ErrInvalidConfig)
	}
	if c.ReloadCron != "" {
		if _, err := cron.ParseStandard(c.ReloadCron); err != nil {
			return fmt.Errorf("%w: reload_cron: %v", ErrInvalidConfig, err)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
