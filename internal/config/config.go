// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Editor   EditorConfig
	Jobs     JobConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects where save files live.
type StoreConfig struct {
	// Backend is one of file, postgres, sqlite (default: file)
	Backend string `env:"STORE_BACKEND" default:"file"`

	// Dir is the directory of .gdb files for the file backend (default: ./data)
	Dir string `env:"STORE_DIR" default:"./data"`

	// DatabaseURL is the PostgreSQL connection string for the postgres backend.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// SQLitePath is the database file for the sqlite backend (default: ./data/geardb.sqlite)
	SQLitePath string `env:"SQLITE_PATH" default:"./data/geardb.sqlite"`

	// Timeout bounds a single read or write against the store (default: 10s)
	Timeout time.Duration `env:"STORE_TIMEOUT" default:"10s"`
}

// EditorConfig holds editing session settings.
type EditorConfig struct {
	// MaxRowsPerAdd caps the count accepted by one add-rows call (default: 100)
	MaxRowsPerAdd int `env:"EDITOR_MAX_ROWS_PER_ADD" default:"100"`

	// Autoload names a save file to open on startup (optional)
	Autoload string `env:"EDITOR_AUTOLOAD"`

	// AutosaveInterval saves unsaved edits to the open file; 0 disables (default: 0s)
	AutosaveInterval time.Duration `env:"EDITOR_AUTOSAVE_INTERVAL" default:"0s"`
}

// JobConfig bounds CSV imports and XLSX exports.
type JobConfig struct {
	// MaxImportSize is the largest accepted CSV or save file upload in bytes (default: 10MB)
	MaxImportSize int64 `env:"JOB_MAX_IMPORT_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel jobs (default: 4)
	MaxConcurrent int `env:"JOB_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a job slot (default: 10s)
	MaxWaitTime time.Duration `env:"JOB_MAX_WAIT_TIME" default:"10s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey rejects API requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
