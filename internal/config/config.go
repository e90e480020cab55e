// Package config provides centralized configuration management for the weather history service.
// Values come from the environment, optionally seeded from a .env file, with
// defaults suitable for local development against the public Open-Meteo APIs.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration settings for the service.
//
// Every field is read from OUTER_INNER (e.g. DATABASE_DB_DSN) and falls back
// to its short tag name (e.g. DB_DSN).
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	External       ExternalConfig
	CircuitBreaker CircuitBreakerConfig
	Observability  ObservabilityConfig
	CORS           CORSConfig
}

// ServerConfig contains HTTP server settings and timeouts.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"development"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig selects and tunes the request store.
type DatabaseConfig struct {
	Driver                string        `envconfig:"DB_DRIVER" default:"sqlite3"`
	DSN                   string        `envconfig:"DB_DSN" default:"weather.db"`
	MaxConnections        int           `envconfig:"DB_MAX_CONNECTIONS" default:"25"`
	MaxIdleConnections    int           `envconfig:"DB_MAX_IDLE_CONNECTIONS" default:"5"`
	ConnectionMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	AutoMigrate           bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// ExternalConfig contains settings for the upstream providers.
type ExternalConfig struct {
	GeocodingBaseURL string        `envconfig:"GEOCODING_BASE_URL" default:"https://geocoding-api.open-meteo.com"`
	ArchiveBaseURL   string        `envconfig:"ARCHIVE_BASE_URL" default:"https://archive-api.open-meteo.com"`
	VideoBaseURL     string        `envconfig:"VIDEO_BASE_URL" default:"https://piped.video"`
	HTTPTimeout      time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
}

// CircuitBreakerConfig applies to every upstream breaker.
type CircuitBreakerConfig struct {
	MaxRequests uint32        `envconfig:"CB_MAX_REQUESTS" default:"3"`
	Interval    time.Duration `envconfig:"CB_INTERVAL" default:"10s"`
	Timeout     time.Duration `envconfig:"CB_TIMEOUT" default:"30s"`
}

// ObservabilityConfig contains settings for distributed tracing and metrics.
type ObservabilityConfig struct {
	Enabled        bool    `envconfig:"OTEL_ENABLED" default:"false"`
	ServiceName    string  `envconfig:"OTEL_SERVICE_NAME" default:"weather-history-service"`
	ServiceVersion string  `envconfig:"VERSION" default:"1.0.0"`
	OTLPEndpoint   string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	SampleRate     float64 `envconfig:"OTEL_SAMPLE_RATE" default:"0.1"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173"`
}

// Load reads an optional .env file and then the environment.
// Variables already set in the environment win over the .env file.
//
// Returns:
//   - *Config: Populated configuration
//   - error: Parse or validation error
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values envconfig cannot check by type alone.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: expected sqlite3 or postgres", c.Database.Driver)
	}

	if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
		return fmt.Errorf("invalid OTEL_SAMPLE_RATE %v: expected a value between 0 and 1", c.Observability.SampleRate)
	}

	if c.External.HTTPTimeout <= 0 {
		return fmt.Errorf("invalid HTTP_TIMEOUT %v: must be positive", c.External.HTTPTimeout)
	}

	return nil
}
