package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "IMPACTSIM_"

// Load layers the TOML file at path (skipped when empty) over Defaults, then
// applies environment overrides, reading a .env file first when present.
// Unknown TOML keys and malformed override values are errors. The result is
// not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config: %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}

	_ = godotenv.Load()

	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// env applies overrides from lookup, remembering the first bad value per
// variable.
type env struct {
	lookup func(string) string
	errs   []error
}

func (e *env) get(key string) (string, bool) {
	v := strings.TrimSpace(e.lookup(EnvPrefix + key))
	return v, v != ""
}

func (e *env) fail(key, v string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, v, err))
}

func parsed[T any](e *env, dst *T, key string, parse func(string) (T, error)) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	x, err := parse(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = x
}

func (e *env) str(dst *string, key string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *env) int(dst *int, key string) { parsed(e, dst, key, strconv.Atoi) }

func (e *env) int64(dst *int64, key string) {
	parsed(e, dst, key, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
}

func (e *env) float(dst *float64, key string) {
	parsed(e, dst, key, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (e *env) bool(dst *bool, key string) { parsed(e, dst, key, strconv.ParseBool) }

func (e *env) duration(dst *duration, key string) {
	parsed(e, &dst.Duration, key, time.ParseDuration)
}

// list splits a comma separated value, dropping empty items.
func (e *env) list(dst *[]string, key string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}

// applyEnv overrides cfg from IMPACTSIM_<SECTION>_<KEY> variables.
func applyEnv(cfg *Config, lookup func(string) string) error {
	e := &env{lookup: lookup}

	e.int(&cfg.Server.Port, "SERVER_PORT")
	e.list(&cfg.Server.CORSOrigins, "SERVER_CORS_ORIGINS")
	e.str(&cfg.Server.APIKey, "SERVER_API_KEY")
	e.int(&cfg.Server.RateLimit, "SERVER_RATE_LIMIT")
	e.duration(&cfg.Server.RateWindow, "SERVER_RATE_WINDOW")
	e.str(&cfg.Server.AlertLevel, "SERVER_ALERT_LEVEL")

	e.bool(&cfg.Postgres.Enabled, "POSTGRES_ENABLED")
	if dsn := strings.TrimSpace(lookup("DATABASE_URL")); dsn != "" {
		cfg.Postgres.DSN = dsn
	}
	e.str(&cfg.Postgres.DSN, "POSTGRES_DSN")
	e.str(&cfg.Postgres.Host, "POSTGRES_HOST")
	e.int(&cfg.Postgres.Port, "POSTGRES_PORT")
	e.str(&cfg.Postgres.Database, "POSTGRES_DATABASE")
	e.str(&cfg.Postgres.User, "POSTGRES_USER")
	e.str(&cfg.Postgres.Password, "POSTGRES_PASSWORD")
	e.str(&cfg.Postgres.SSLMode, "POSTGRES_SSL_MODE")
	e.int(&cfg.Postgres.PoolMaxConns, "POSTGRES_POOL_MAX_CONNS")
	e.int(&cfg.Postgres.PoolMinConns, "POSTGRES_POOL_MIN_CONNS")
	e.bool(&cfg.Postgres.RunMigrations, "POSTGRES_RUN_MIGRATIONS")

	e.bool(&cfg.Redis.Enabled, "REDIS_ENABLED")
	e.str(&cfg.Redis.Addr, "REDIS_ADDR")
	e.str(&cfg.Redis.Password, "REDIS_PASSWORD")
	e.int(&cfg.Redis.DB, "REDIS_DB")
	e.int(&cfg.Redis.PoolSize, "REDIS_POOL_SIZE")
	e.int(&cfg.Redis.MaxRetries, "REDIS_MAX_RETRIES")
	e.bool(&cfg.Redis.TLSEnabled, "REDIS_TLS_ENABLED")
	e.duration(&cfg.Redis.CacheTTL, "REDIS_CACHE_TTL")
	e.int64(&cfg.Redis.StreamMaxLen, "REDIS_STREAM_MAX_LEN")

	e.bool(&cfg.S3.Enabled, "S3_ENABLED")
	e.str(&cfg.S3.Endpoint, "S3_ENDPOINT")
	e.str(&cfg.S3.Region, "S3_REGION")
	e.str(&cfg.S3.Bucket, "S3_BUCKET")
	e.str(&cfg.S3.AccessKey, "S3_ACCESS_KEY")
	e.str(&cfg.S3.SecretKey, "S3_SECRET_KEY")
	e.bool(&cfg.S3.UseSSL, "S3_USE_SSL")
	e.bool(&cfg.S3.ForcePathStyle, "S3_FORCE_PATH_STYLE")
	e.bool(&cfg.S3.CreateBucket, "S3_CREATE_BUCKET")

	e.str(&cfg.Sources.SBDBURL, "SOURCES_SBDB_URL")
	e.duration(&cfg.Sources.SBDBTimeout, "SOURCES_SBDB_TIMEOUT")
	e.str(&cfg.Sources.ElevationURL, "SOURCES_ELEVATION_URL")
	e.duration(&cfg.Sources.ElevationTimeout, "SOURCES_ELEVATION_TIMEOUT")
	e.float(&cfg.Sources.BackgroundDensityPerKm2, "SOURCES_BACKGROUND_DENSITY_PER_KM2")

	e.str(&cfg.Notify.TelegramToken, "NOTIFY_TELEGRAM_TOKEN")
	e.str(&cfg.Notify.TelegramChatID, "NOTIFY_TELEGRAM_CHAT_ID")
	e.str(&cfg.Notify.DiscordWebhookURL, "NOTIFY_DISCORD_WEBHOOK_URL")
	e.list(&cfg.Notify.Events, "NOTIFY_EVENTS")

	e.duration(&cfg.Batch.LockTTL, "BATCH_LOCK_TTL")

	e.int(&cfg.Study.Workers, "STUDY_WORKERS")
	e.int(&cfg.Study.MaxCells, "STUDY_MAX_CELLS")
	e.int(&cfg.Tsunami.SampleCount, "TSUNAMI_SAMPLE_COUNT")
	e.float(&cfg.Tsunami.SearchRadiusKm, "TSUNAMI_SEARCH_RADIUS_KM")
	e.int(&cfg.Tsunami.Concurrency, "TSUNAMI_CONCURRENCY")
	e.float(&cfg.Casualty.DefaultDensityPerKm2, "CASUALTY_DEFAULT_DENSITY_PER_KM2")
	e.int(&cfg.Orbit.MaxIterations, "ORBIT_MAX_ITERATIONS")
	e.float(&cfg.Orbit.Tolerance, "ORBIT_TOLERANCE")

	e.bool(&cfg.Tracing.Enabled, "TRACING_ENABLED")
	e.str(&cfg.Tracing.Exporter, "TRACING_EXPORTER")
	e.float(&cfg.Tracing.SampleRatio, "TRACING_SAMPLE_RATIO")

	e.str(&cfg.Mode, "MODE")
	e.str(&cfg.LogLevel, "LOG_LEVEL")

	if len(e.errs) > 0 {
		return fmt.Errorf("config: environment: %w", errors.Join(e.errs...))
	}
	return nil
}
