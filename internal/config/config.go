// Package config defines the top-level configuration for impactsim and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/impactsim/internal/casualty"
	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/observability"
	"github.com/alanyoungcy/impactsim/internal/orbit"
	"github.com/alanyoungcy/impactsim/internal/physics"
	"github.com/alanyoungcy/impactsim/internal/study"
	"github.com/alanyoungcy/impactsim/internal/tsunami"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by IMPACTSIM_* environment variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Sources  SourcesConfig  `toml:"sources"`
	Notify   NotifyConfig   `toml:"notify"`
	Batch    BatchConfig    `toml:"batch"`

	Physics  physics.Constants           `toml:"physics"`
	Tsunami  tsunami.Config              `toml:"tsunami"`
	Casualty casualty.Config             `toml:"casualty"`
	Orbit    orbit.Config                `toml:"orbit"`
	Study    study.Config                `toml:"study"`
	Tracing  observability.TracingConfig `toml:"tracing"`

	Mode     string `toml:"mode"`
	LogLevel string `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey enables bearer/X-API-Key authentication when non-empty.
	APIKey string `toml:"api_key"`
	// RateLimit is requests per RateWindow per client IP; 0 disables it.
	// Limiting needs redis.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
	// AlertLevel is the lowest tsunami risk that triggers a notification.
	AlertLevel string `toml:"alert_level"`
}

// PostgresConfig holds PostgreSQL connection parameters. When disabled,
// reports and studies are not persisted.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis backs the lookup
// caches, the event bus, rate limiting and the batch lock.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	CacheTTL   duration `toml:"cache_ttl"`
	// StreamMaxLen caps the study and report event streams.
	StreamMaxLen int64 `toml:"stream_max_len"`
}

// S3Config holds S3-compatible object storage parameters used for study and
// batch archives.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	// CreateBucket creates the bucket at startup when missing.
	CreateBucket bool `toml:"create_bucket"`
}

// SourcesConfig configures the external data sources.
type SourcesConfig struct {
	SBDBURL                 string   `toml:"sbdb_url"`
	SBDBTimeout             duration `toml:"sbdb_timeout"`
	ElevationURL            string   `toml:"elevation_url"`
	ElevationTimeout        duration `toml:"elevation_timeout"`
	BackgroundDensityPerKm2 float64  `toml:"background_density_per_km2"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// BatchConfig configures batch mode.
type BatchConfig struct {
	LockTTL duration `toml:"lock_ttl"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
			AlertLevel:  "high",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "impactsim",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			PoolSize:     20,
			MaxRetries:   3,
			CacheTTL:     duration{24 * time.Hour},
			StreamMaxLen: 10000,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "impactsim-archive",
			ForcePathStyle: true,
		},
		Sources: SourcesConfig{
			SBDBURL:                 "https://ssd-api.jpl.nasa.gov/sbdb.api",
			SBDBTimeout:             duration{15 * time.Second},
			ElevationURL:            "https://api.open-elevation.com",
			ElevationTimeout:        duration{10 * time.Second},
			BackgroundDensityPerKm2: 50,
		},
		Notify: NotifyConfig{
			Events: []string{"tsunami_risk", "study_completed", "batch_completed"},
		},
		Batch: BatchConfig{LockTTL: duration{10 * time.Minute}},

		Physics:  physics.DefaultConstants(),
		Tsunami:  tsunami.DefaultConfig(),
		Casualty: casualty.DefaultConfig(),
		Orbit:    orbit.DefaultConfig(),
		Study:    study.DefaultConfig(),
		Tracing: observability.TracingConfig{
			ServiceName: "impactsim",
			Exporter:    "stdout",
			SampleRatio: 1,
		},

		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"batch":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, batch)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Server
	if mode == "server" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration < time.Second {
			errs = append(errs, "server: rate_window must be at least 1s when rate_limit is set")
		}
	}
	if _, err := c.AlertLevel(); err != nil {
		errs = append(errs, fmt.Sprintf("server: alert_level: %v", err))
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be in [0, pool_max_conns]")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	// Batch mode coordinates replicas through redis and writes an archive.
	if mode == "batch" {
		if !c.Redis.Enabled {
			errs = append(errs, "batch: redis must be enabled for the batch lock")
		}
		if !c.S3.Enabled {
			errs = append(errs, "batch: s3 must be enabled for the batch archive")
		}
		if c.Batch.LockTTL.Duration <= 0 {
			errs = append(errs, "batch: lock_ttl must be > 0")
		}
	}

	// Models
	for _, m := range []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"physics", c.Physics},
		{"tsunami", c.Tsunami},
		{"casualty", c.Casualty},
		{"orbit", c.Orbit},
		{"study", c.Study},
	} {
		if err := m.v.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", m.name, err))
		}
	}

	if c.Tracing.Enabled && c.Tracing.Exporter != "stdout" {
		errs = append(errs, fmt.Sprintf("tracing: unknown exporter %q (valid: stdout)", c.Tracing.Exporter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// AlertLevel parses Server.AlertLevel.
func (c *Config) AlertLevel() (domain.RiskLevel, error) {
	return domain.ParseRiskLevel(c.Server.AlertLevel)
}
