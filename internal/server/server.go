package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/metrics"
	"github.com/alanyoungcy/impactsim/internal/server/handler"
	"github.com/alanyoungcy/impactsim/internal/server/middleware"
	"github.com/alanyoungcy/impactsim/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimit requests per RateWindow per client IP. Zero disables
	// limiting, as does a nil limiter.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health    *handler.HealthHandler
	Impact    *handler.ImpactHandler
	Study     *handler.StudyHandler
	Scenarios *handler.ScenarioHandler
	Orbit     *handler.OrbitHandler
	Tsunami   *handler.TsunamiHandler
	Audit     *handler.AuditHandler
}

// Server is the HTTP + WebSocket API server for impact analyses.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// publicPaths are served without an API key.
var publicPaths = []string{"/api/health", "/metrics"}

// NewServer creates a new Server with all routes registered on the ServeMux.
// Optional collaborators (hub, limiter, metrics) may be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, m *metrics.Collector, logger *slog.Logger) *Server {
	mux := newMux(handlers, wsHub, m)

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, publicPaths...)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	}
	if m != nil {
		h = m.Middleware(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Synchronous studies can run for a while.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{httpServer: srv, logger: logger}
}

func newMux(handlers Handlers, wsHub *ws.Hub, m *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Analyses and stored reports.
	mux.HandleFunc("POST /api/impact/analyze", handlers.Impact.Analyze)
	mux.HandleFunc("POST /api/impact/orbit", handlers.Impact.AnalyzeOrbit)
	mux.HandleFunc("GET /api/reports", handlers.Impact.ListReports)
	mux.HandleFunc("GET /api/reports/{id}", handlers.Impact.GetReport)

	// Parameter studies.
	mux.HandleFunc("POST /api/impact/study", handlers.Study.Run)
	mux.HandleFunc("GET /api/impact/study/parameters", handlers.Study.Parameters)
	mux.HandleFunc("GET /api/impact/study/{id}", handlers.Study.Get)
	mux.HandleFunc("GET /api/impact/study/{id}/archive", handlers.Study.Archive)

	// Scenario catalog.
	mux.HandleFunc("GET /api/scenarios", handlers.Scenarios.ListScenarios)
	mux.HandleFunc("GET /api/scenarios/categories", handlers.Scenarios.Categories)
	mux.HandleFunc("POST /api/scenarios/compare", handlers.Scenarios.Compare)
	mux.HandleFunc("GET /api/scenarios/{id}", handlers.Scenarios.GetScenario)
	mux.HandleFunc("POST /api/scenarios/{id}/run", handlers.Scenarios.RunScenario)

	// Orbits.
	mux.HandleFunc("POST /api/orbit/trajectory", handlers.Orbit.Trajectory)
	mux.HandleFunc("GET /api/orbit/{designation}", handlers.Orbit.Body)

	// Tsunami risk.
	mux.HandleFunc("POST /api/tsunami/assess", handlers.Tsunami.Assess)
	mux.HandleFunc("GET /api/tsunami/quick", handlers.Tsunami.Quick)
	mux.HandleFunc("GET /api/tsunami/levels", handlers.Tsunami.Levels)
	mux.HandleFunc("GET /api/tsunami/levels/{level}", handlers.Tsunami.Level)

	mux.HandleFunc("GET /api/audit", handlers.Audit.List)

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}
	return mux
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
