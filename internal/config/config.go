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
	Data     DataConfig
	Columns  ColumnConfig
	API      APIConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DataConfig holds the source file locations.
type DataConfig struct {
	// NEOPath is the CSV of near-Earth objects (required)
	NEOPath string `env:"NEO_CSV_PATH" envAlt:"NEOS_PATH" required:"true"`

	// CADPath is the JSON of close approaches (required)
	CADPath string `env:"CAD_JSON_PATH" envAlt:"CAD_PATH" required:"true"`

	// ReloadInterval re-reads both files periodically; 0 disables (default: 0s)
	ReloadInterval time.Duration `env:"DATA_RELOAD_INTERVAL" default:"0s"`

	// StrictEvents aborts a load on the first invalid close-approach row (default: false)
	StrictEvents bool `env:"DATA_STRICT_EVENTS" default:"false"`
}

// ColumnConfig maps source column names to record fields.
type ColumnConfig struct {
	NEODesignation string `env:"NEO_COL_DESIGNATION" default:"pdes"`
	NEOName        string `env:"NEO_COL_NAME" default:"name"`
	NEODiameter    string `env:"NEO_COL_DIAMETER" default:"diameter"`
	NEOHazardous   string `env:"NEO_COL_HAZARDOUS" default:"pha"`

	// HazardTrueValues is the comma-separated truthy set for the hazard column (default: Y)
	HazardTrueValues []string `env:"NEO_HAZARD_TRUE_VALUES" default:"Y"`

	CADDesignation string `env:"CAD_COL_DESIGNATION" default:"des"`
	CADTime        string `env:"CAD_COL_TIME" default:"cd"`
	CADDistance    string `env:"CAD_COL_DISTANCE" default:"dist"`
	CADVelocity    string `env:"CAD_COL_VELOCITY" default:"v_rel"`
}

// APIConfig holds record listing settings.
type APIConfig struct {
	// DefaultPageSize applies when no limit is given (default: 100)
	DefaultPageSize int `env:"API_DEFAULT_PAGE_SIZE" default:"100"`

	// MaxPageSize caps the limit query parameter (default: 5000)
	MaxPageSize int `env:"API_MAX_PAGE_SIZE" default:"5000"`
}

// SecurityConfig guards the mutating endpoint and proxy header handling.
type SecurityConfig struct {
	// RequireAPIKey enables X-API-Key checks on POST /api/reload (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is the comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies lists CIDRs whose X-Real-IP / X-Forwarded-For headers are honored
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
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
