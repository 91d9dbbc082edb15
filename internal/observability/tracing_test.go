package observability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestInitTracingStdout(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), TracingConfig{
		Enabled:  true,
		Exporter: "stdout",
		Writer:   &buf,
	}, discardLogger())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}

	_, span := Start(context.Background(), "impact.analyze", attribute.Float64("diameter_m", 100))
	End(span, errors.New("boom"))

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "impact.analyze") || !strings.Contains(out, "boom") {
		t.Errorf("exported spans missing name or error:\n%s", out)
	}

	// Leave a noop provider behind for other tests.
	if _, err := InitTracing(context.Background(), TracingConfig{}, discardLogger()); err != nil {
		t.Fatal(err)
	}
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	_, span := Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("disabled tracing produced a sampled span")
	}
	End(span, nil)
	ShutdownWithTimeout(context.Background(), shutdown, discardLogger())
}

func TestUnsupportedExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, discardLogger())
	if err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}
