package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/server"
	"github.com/alanyoungcy/impactsim/internal/server/handler"
	"github.com/alanyoungcy/impactsim/internal/server/ws"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// ServerMode runs the HTTP API and, when the event bus is wired, the
// websocket hub. It blocks until ctx is cancelled or a component fails.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	logger := a.logger.With(slog.String("mode", "server"))
	g, ctx := errgroup.WithContext(ctx)

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.cfg.Server.CORSOrigins, logger)
		g.Go(func() error { return hub.Run(ctx) })
	} else {
		logger.WarnContext(ctx, "redis disabled; websocket events unavailable")
	}

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(deps.Checks, logger),
		Impact:    handler.NewImpactHandler(deps.Impact, logger),
		Study:     handler.NewStudyHandler(deps.Study, logger),
		Scenarios: handler.NewScenarioHandler(deps.Catalog, deps.Impact, logger),
		Orbit:     handler.NewOrbitHandler(deps.Impact, logger),
		Tsunami:   handler.NewTsunamiHandler(deps.Impact, logger),
		Audit:     handler.NewAuditHandler(deps.Audit, logger),
	}
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, deps.Metrics, logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutCtx)
		// Background studies outlive their requests; let them persist.
		deps.Study.Wait()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: server mode: %w", err)
	}
	return nil
}

// BatchMode analyzes every catalog scenario once and exits. Another replica
// holding the batch lock is not an error.
func (a *App) BatchMode(ctx context.Context, deps *Dependencies) error {
	logger := a.logger.With(slog.String("mode", "batch"))
	if deps.Batch == nil {
		return errors.New("app: batch mode requires redis")
	}

	start := time.Now()
	res, err := deps.Batch.Run(ctx)
	if errors.Is(err, domain.ErrLockHeld) {
		logger.InfoContext(ctx, "batch already running elsewhere; nothing to do")
		return nil
	}
	if err != nil {
		return fmt.Errorf("app: batch mode: %w", err)
	}

	logger.InfoContext(ctx, "batch finished",
		slog.String("batch_id", res.ID),
		slog.Int("reports", len(res.Reports)),
		slog.Int("failed", len(res.Failed)),
		slog.String("archive_path", res.ArchivePath),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}
