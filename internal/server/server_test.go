package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alanyoungcy/impactsim/internal/metrics"
	"github.com/alanyoungcy/impactsim/internal/server/handler"
	"github.com/alanyoungcy/impactsim/internal/server/middleware"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(Config{Port: 8000, APIKey: "secret"}, Handlers{
		Health: handler.NewHealthHandler(nil, logger),
		Audit:  handler.NewAuditHandler(nil, logger),
	}, nil, nil, m, logger)
	return srv.Handler()
}

func TestServerChain(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		key    string
		want   int
	}{
		{"public health", http.MethodGet, "/api/health", "", http.StatusOK},
		{"public metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"protected without key", http.MethodGet, "/api/audit", "", http.StatusUnauthorized},
		{"protected with key", http.MethodGet, "/api/audit", "secret", http.StatusInternalServerError},
		{"wrong method", http.MethodPost, "/api/health", "", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/api/nope", "secret", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if rec.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("response carries no request id")
			}
		})
	}
}

func TestServerRecordsRoutePattern(t *testing.T) {
	h := newTestServer(t)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if body := rec.Body.String(); !strings.Contains(body, `path="GET /api/health"`) {
		t.Errorf("path label missing from metrics:\n%s", body)
	}
}
