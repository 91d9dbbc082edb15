// Command impactsim runs the asteroid impact service in server or batch
// mode.
//
//	impactsim -config config.toml [-mode batch]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alanyoungcy/impactsim/internal/app"
	"github.com/alanyoungcy/impactsim/internal/config"
	"github.com/alanyoungcy/impactsim/internal/observability"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("impactsim", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a TOML config file; defaults apply when empty")
	mode := fs.String("mode", "", "override the configured mode (server, batch)")
	_ = fs.Parse(args)

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		return 1
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}
	// Validate has already rejected unknown names.
	_ = level.UnmarshalText([]byte(cfg.LogLevel))
	logger.Debug("configuration loaded", slog.Any("config", config.RedactedConfig(cfg)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		logger.Error("failed to init tracing", slog.String("error", err.Error()))
		return 1
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	logger.Info("impactsim starting", slog.String("mode", cfg.Mode), slog.String("config", *configPath))

	application := app.New(cfg, logger)
	defer application.Close()

	switch err := application.Run(ctx); {
	case err == nil:
		logger.Info("impactsim stopped")
	case errors.Is(err, context.Canceled):
		logger.Info("impactsim shut down on signal")
	default:
		logger.Error("impactsim failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "impactsim: %v\n", err)
		return 1
	}
	return 0
}
