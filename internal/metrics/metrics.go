// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles every metric the service exports. A nil *Collector is
// valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	LookupFallbacks  *prometheus.CounterVec
	KeplerIterations prometheus.Histogram
	StudyCells       *prometheus.CounterVec
	StudyDuration    prometheus.Histogram
	Reports          *prometheus.CounterVec
}

// New registers the collectors on reg, or on the default registry when reg
// is nil. Registering twice on one registry reuses the existing collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.HTTPRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impactsim_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"path", "method", "code"})); err != nil {
		return nil, err
	}
	if c.HTTPDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "impactsim_http_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})); err != nil {
		return nil, err
	}
	if c.LookupFallbacks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impactsim_lookup_fallbacks_total",
		Help: "External lookups that failed and were replaced by a default value.",
	}, []string{"source"})); err != nil {
		return nil, err
	}
	if c.KeplerIterations, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "impactsim_kepler_iterations",
		Help:    "Newton iterations needed to solve Kepler's equation.",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 25, 50, 100},
	})); err != nil {
		return nil, err
	}
	if c.StudyCells, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impactsim_study_cells_total",
		Help: "Parameter study cells evaluated, by outcome.",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if c.StudyDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "impactsim_study_duration_seconds",
		Help:    "Wall time of a full parameter study.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})); err != nil {
		return nil, err
	}
	if c.Reports, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impactsim_reports_total",
		Help: "Impact reports produced, by kind.",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	return c, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, col C) (C, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return col, fmt.Errorf("metrics: register: %w", err)
	}
	return col, nil
}

// Handler serves the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Fallback counts a lookup that fell back to a default.
func (c *Collector) Fallback(source string) {
	if c == nil {
		return
	}
	c.LookupFallbacks.WithLabelValues(source).Inc()
}

// KeplerSolved records the iterations of one Kepler solve.
func (c *Collector) KeplerSolved(iterations int) {
	if c == nil {
		return
	}
	c.KeplerIterations.Observe(float64(iterations))
}

// StudyFinished records one completed study.
func (c *Collector) StudyFinished(succeeded, failed int, d time.Duration) {
	if c == nil {
		return
	}
	c.StudyCells.WithLabelValues("ok").Add(float64(succeeded))
	c.StudyCells.WithLabelValues("error").Add(float64(failed))
	c.StudyDuration.Observe(d.Seconds())
}

// ReportCreated counts one report of the given kind (analyze, orbit,
// scenario, batch).
func (c *Collector) ReportCreated(kind string) {
	if c == nil {
		return
	}
	c.Reports.WithLabelValues(kind).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: underlying writer does not support hijacking")
	}
	return h.Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration. Requests are labelled with
// the matched route pattern so path parameters do not explode cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		c.HTTPRequests.WithLabelValues(path, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		c.HTTPDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}
