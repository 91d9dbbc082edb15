package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

type memWriter struct {
	objects map[string][]byte
	types   map[string]string
	fail    error
}

func newMemWriter() *memWriter {
	return &memWriter{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memWriter) Upload(_ context.Context, key string, body []byte, contentType string) error {
	if m.fail != nil {
		return m.fail
	}
	m.objects[key] = body
	m.types[key] = contentType
	return nil
}

type memAudit struct {
	entries []domain.AuditEntry
	fail    error
}

func (m *memAudit) Log(_ context.Context, e domain.AuditEntry) error {
	if m.fail != nil {
		return m.fail
	}
	m.entries = append(m.entries, e)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func (m *memAudit) List(context.Context, domain.AuditFilter) ([]domain.AuditEntry, error) {
	return m.entries, nil
}

func sampleStudy() domain.StudyResult {
	return domain.StudyResult{
		ID:        "study-1",
		CreatedAt: time.Date(2026, 10, 14, 23, 30, 0, 0, time.FixedZone("x", -3*3600)),
		Axes:      []domain.StudyAxis{{Parameter: domain.ParamDiameter, Values: []float64{10, 20}}},
		Cells: []domain.StudyCell{
			{Index: 0, Inputs: []domain.StudyValue{{Parameter: domain.ParamDiameter, Value: 10}}},
			{Index: 1, Inputs: []domain.StudyValue{{Parameter: domain.ParamDiameter, Value: 20}}, Error: "boom"},
		},
	}
}

func TestArchiveStudy(t *testing.T) {
	w := newMemWriter()
	audit := &memAudit{}
	a := NewArchiver(w, audit, discardLogger())

	path, err := a.ArchiveStudy(context.Background(), sampleStudy())
	if err != nil {
		t.Fatalf("ArchiveStudy: %v", err)
	}
	// Partitioned by UTC day, so the -03:00 evening lands on the 15th.
	if path != "studies/2026/10/15/study-1.jsonl" {
		t.Errorf("path = %q", path)
	}
	if w.types[path] != ContentTypeJSONL {
		t.Errorf("content type = %q", w.types[path])
	}

	sc := bufio.NewScanner(bytes.NewReader(w.objects[path]))
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 cells", len(lines))
	}
	var header studyHeader
	if err := json.Unmarshal([]byte(lines[0]), &header); err != nil {
		t.Fatal(err)
	}
	if header.ID != "study-1" || header.Cells != 2 {
		t.Errorf("header = %+v", header)
	}
	var cell domain.StudyCell
	if err := json.Unmarshal([]byte(lines[2]), &cell); err != nil {
		t.Fatal(err)
	}
	if cell.Index != 1 || cell.Error != "boom" {
		t.Errorf("cell = %+v", cell)
	}
	if len(audit.entries) != 1 || audit.entries[0].Event != "archive.study" || audit.entries[0].Subject != "study-1" {
		t.Errorf("audit = %+v", audit.entries)
	}
}

func TestArchiveStudyErrors(t *testing.T) {
	a := NewArchiver(newMemWriter(), nil, discardLogger())
	if _, err := a.ArchiveStudy(context.Background(), domain.StudyResult{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty id: err = %v", err)
	}

	w := newMemWriter()
	w.fail = errors.New("bucket gone")
	if _, err := NewArchiver(w, nil, discardLogger()).ArchiveStudy(context.Background(), sampleStudy()); err == nil || !strings.Contains(err.Error(), "bucket gone") {
		t.Errorf("upload failure: err = %v", err)
	}
}

func TestArchiveAuditFailureLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	w := newMemWriter()
	a := NewArchiver(w, &memAudit{fail: errors.New("audit table locked")}, logger)

	path, err := a.ArchiveStudy(context.Background(), sampleStudy())
	if err != nil {
		t.Fatalf("audit failure failed the archive: %v", err)
	}
	if _, ok := w.objects[path]; !ok {
		t.Errorf("bundle not uploaded at %q", path)
	}
	var rec map[string]any
	if err := json.Unmarshal(logs.Bytes(), &rec); err != nil {
		t.Fatalf("log line: %v (%q)", err, logs.String())
	}
	if rec["level"] != "WARN" || rec["subject"] != "study-1" || !strings.Contains(rec["error"].(string), "audit table locked") {
		t.Errorf("log = %v", rec)
	}
}

func TestArchiveReports(t *testing.T) {
	w := newMemWriter()
	a := NewArchiver(w, nil, discardLogger())
	created := time.Date(2026, 10, 14, 1, 0, 0, 0, time.UTC)
	reports := []domain.Report{{ID: "a", CreatedAt: created}, {ID: "b", CreatedAt: created}}

	path, err := a.ArchiveReports(context.Background(), "batch-7", reports)
	if err != nil {
		t.Fatal(err)
	}
	if path != "reports/2026/10/14/batch-7.jsonl" {
		t.Errorf("path = %q", path)
	}
	if n := bytes.Count(w.objects[path], []byte("\n")); n != 2 {
		t.Errorf("lines = %d, want 2", n)
	}

	if path, err := a.ArchiveReports(context.Background(), "empty", nil); err != nil || path != "" {
		t.Errorf("empty batch = %q, %v", path, err)
	}
}

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		ssl  bool
		want string
	}{
		{"localhost:9000", false, "http://localhost:9000"},
		{"s3.example.com", true, "https://s3.example.com"},
		{"https://already", false, "https://already"},
	}
	for _, tt := range tests {
		if got := normaliseEndpoint(tt.in, tt.ssl); got != tt.want {
			t.Errorf("normaliseEndpoint(%q, %v) = %q, want %q", tt.in, tt.ssl, got, tt.want)
		}
	}
}
