package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	lvl, err := cfg.AlertLevel()
	if err != nil || lvl != domain.RiskHigh {
		t.Errorf("alert level = %v, %v", lvl, err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "impactsim.toml")
	body := `
mode = "server"
log_level = "debug"

[server]
port = 9090
rate_window = "30s"

[tsunami]
sample_count = 8

[redis]
enabled = true
cache_ttl = "1h"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.RateWindow.Duration != 30*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Tsunami.SampleCount != 8 || cfg.Tsunami.SearchRadiusKm != 200 {
		t.Errorf("tsunami = %+v", cfg.Tsunami)
	}
	if !cfg.Redis.Enabled || cfg.Redis.CacheTTL.Duration != time.Hour || cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.Physics.JoulesPerMegaton != 4.184e15 {
		t.Errorf("physics defaults lost: %v", cfg.Physics.JoulesPerMegaton)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("IMPACTSIM_SERVER_PORT", "7000")
	t.Setenv("IMPACTSIM_SERVER_CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("IMPACTSIM_POSTGRES_DSN", "postgres://u:p@db:5432/x")
	t.Setenv("IMPACTSIM_REDIS_ENABLED", "true")
	t.Setenv("IMPACTSIM_REDIS_CACHE_TTL", "2h")
	t.Setenv("IMPACTSIM_MODE", "batch")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if got := strings.Join(cfg.Server.CORSOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("cors = %q", got)
	}
	if cfg.Postgres.DSN != "postgres://u:p@db:5432/x" || !cfg.Redis.Enabled || cfg.Redis.CacheTTL.Duration != 2*time.Hour {
		t.Errorf("overrides not applied: %+v %+v", cfg.Postgres, cfg.Redis)
	}
	if cfg.Mode != "batch" {
		t.Errorf("mode = %q", cfg.Mode)
	}
}

func TestEnvOverrideMalformed(t *testing.T) {
	t.Setenv("IMPACTSIM_STUDY_WORKERS", "not-a-number")
	t.Setenv("IMPACTSIM_REDIS_CACHE_TTL", "forever")
	_, err := Load("")
	if err == nil {
		t.Fatal("expected an error for malformed overrides")
	}
	for _, name := range []string{"IMPACTSIM_STUDY_WORKERS", "IMPACTSIM_REDIS_CACHE_TTL"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
}

func TestApplyEnvDatabaseURLAlias(t *testing.T) {
	cfg := Defaults()
	vars := map[string]string{"DATABASE_URL": "postgres://alias"}
	if err := applyEnv(&cfg, func(k string) string { return vars[k] }); err != nil {
		t.Fatal(err)
	}
	if cfg.Postgres.DSN != "postgres://alias" {
		t.Errorf("dsn = %q", cfg.Postgres.DSN)
	}

	vars["IMPACTSIM_POSTGRES_DSN"] = "postgres://explicit"
	if err := applyEnv(&cfg, func(k string) string { return vars[k] }); err != nil {
		t.Fatal(err)
	}
	if cfg.Postgres.DSN != "postgres://explicit" {
		t.Errorf("prefixed variable must win, dsn = %q", cfg.Postgres.DSN)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.toml")
	if err := os.WriteFile(path, []byte("[server]\nprot = 9000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "server.prot") {
		t.Fatalf("err = %v", err)
	}
}

func TestRedactDSN(t *testing.T) {
	tests := map[string]string{
		"":                               "",
		"postgres://u@db/x":              "postgres://u@db/x",
		"host=db user=u password=secret": redacted,
	}
	for in, want := range tests {
		if got := redactDSN(in); got != want {
			t.Errorf("redactDSN(%q) = %q, want %q", in, got, want)
		}
	}
	got := redactDSN("postgres://u:pw@db:5432/x")
	if strings.Contains(got, "pw") || !strings.HasSuffix(got, "@db:5432/x") {
		t.Errorf("password survived: %q", got)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.LogLevel = "loud"
	cfg.Server.AlertLevel = "apocalyptic"
	cfg.Postgres.Enabled = true
	cfg.Postgres.PoolMaxConns = 0
	cfg.Study.Workers = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"unknown mode", "log_level", "alert_level", "pool_max_conns", "study:"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateBatchNeedsInfrastructure(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "batch"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "batch: redis") || !strings.Contains(err.Error(), "batch: s3") {
		t.Fatalf("err = %v", err)
	}

	cfg.Redis.Enabled, cfg.S3.Enabled = true, true
	if err := cfg.Validate(); err != nil {
		t.Errorf("batch with redis and s3: %v", err)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Server.APIKey = "key"
	cfg.Postgres.Password = "pw"
	cfg.S3.SecretKey = "secret"
	cfg.Notify.TelegramToken = "tok"

	out := RedactedConfig(&cfg)
	for name, v := range map[string]string{
		"api_key": out.Server.APIKey, "password": out.Postgres.Password,
		"secret_key": out.S3.SecretKey, "telegram_token": out.Notify.TelegramToken,
	} {
		if v != redacted {
			t.Errorf("%s = %q, want redacted", name, v)
		}
	}
	if out.Postgres.DSN != "" {
		t.Errorf("empty dsn must stay empty, got %q", out.Postgres.DSN)
	}
	if cfg.Server.APIKey != "key" {
		t.Error("original was mutated")
	}

	out.Server.CORSOrigins[0] = "changed"
	out.Tsunami.TierCutoffs[0] = 99
	if cfg.Server.CORSOrigins[0] == "changed" || cfg.Tsunami.TierCutoffs[0] == 99 {
		t.Error("slices are shared with the original")
	}
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("example config invalid: %v", err)
	}
}
