// Package app owns the process lifecycle: it wires the dependencies for the
// configured mode, runs the mode and releases resources on Close.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/impactsim/internal/config"
)

// modeFunc runs one operating mode until it finishes or ctx ends.
type modeFunc func(a *App, ctx context.Context, deps *Dependencies) error

// modes maps the accepted Config.Mode values to their runners.
var modes = map[string]modeFunc{
	"server": (*App).ServerMode,
	"batch":  (*App).BatchMode,
}

// App is the root application object.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	closeOnce sync.Once
	cleanup   func()
}

func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires the dependencies and blocks in the selected mode. Resources are
// released by Close, not by Run.
func (a *App) Run(ctx context.Context) error {
	mode := strings.ToLower(a.cfg.Mode)
	run, ok := modes[mode]
	if !ok {
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}

	start := time.Now()
	a.logger.InfoContext(ctx, "starting",
		slog.String("mode", mode),
		slog.String("log_level", a.cfg.LogLevel),
		slog.Bool("postgres", a.cfg.Postgres.Enabled),
		slog.Bool("redis", a.cfg.Redis.Enabled),
		slog.Bool("s3", a.cfg.S3.Enabled),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.cleanup = cleanup

	err = run(a, ctx, deps)
	a.logger.InfoContext(ctx, "mode finished",
		slog.String("mode", mode),
		slog.Duration("uptime", time.Since(start)),
	)
	return err
}

// Close releases everything Wire opened. Only the first call does work.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.logger.Info("shutting down")
		if a.cleanup != nil {
			a.cleanup()
		}
	})
}
