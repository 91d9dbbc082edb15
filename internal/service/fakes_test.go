package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/notify"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// elevationFunc adapts a function to domain.ElevationSource.
type elevationFunc func(lat, lon float64) (float64, error)

func (f elevationFunc) Elevation(_ context.Context, lat, lon float64) (float64, error) {
	return f(lat, lon)
}

func constElevation(m float64) elevationFunc {
	return func(float64, float64) (float64, error) { return m, nil }
}

type staticPopulation struct {
	reading domain.DensityReading
	err     error
}

func (p staticPopulation) Density(context.Context, float64, float64) (domain.DensityReading, error) {
	return p.reading, p.err
}

type fakeElements struct {
	mu     sync.Mutex
	bodies map[string]domain.SmallBody
	calls  int
}

func (f *fakeElements) Lookup(_ context.Context, designation string) (domain.SmallBody, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	b, ok := f.bodies[designation]
	if !ok {
		return domain.SmallBody{}, domain.NotFound("designation", designation)
	}
	return b, nil
}

type memReports struct {
	mu      sync.Mutex
	saved   []domain.Report
	saveErr error
}

func (m *memReports) Save(_ context.Context, r domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, r)
	return nil
}

func (m *memReports) GetByID(_ context.Context, id string) (domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Report{}, domain.NotFound("report_id", id)
}

func (m *memReports) List(_ context.Context, opts domain.ListOpts) ([]domain.ReportSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ReportSummary
	for i := len(m.saved) - 1; i >= 0; i-- {
		out = append(out, m.saved[i].Summary())
	}
	if opts.Offset >= len(out) {
		return nil, nil
	}
	out = out[opts.Offset:]
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memReports) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.saved)), nil
}

type memStudies struct {
	mu    sync.Mutex
	byID  map[string]domain.StudyResult
	saves int
}

func newMemStudies() *memStudies {
	return &memStudies{byID: map[string]domain.StudyResult{}}
}

func (m *memStudies) Save(_ context.Context, s domain.StudyResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = s
	m.saves++
	return nil
}

func (m *memStudies) GetByID(_ context.Context, id string) (domain.StudyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return domain.StudyResult{}, domain.NotFound("study_id", id)
	}
	return s, nil
}

type memAudit struct {
	mu       sync.Mutex
	events   []string
	subjects []string
}

func (m *memAudit) Log(_ context.Context, e domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e.Event)
	m.subjects = append(m.subjects, e.Subject)
	return nil
}

func (m *memAudit) List(context.Context, domain.AuditFilter) ([]domain.AuditEntry, error) {
	return nil, nil
}

type published struct {
	channel string
	payload []byte
}

type fakeBus struct {
	mu      sync.Mutex
	pubs    []published
	streams map[string][][]byte
	err     error
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.pubs = append(b.pubs, published{channel, payload})
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBus) Append(_ context.Context, stream string, payload []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return "", b.err
	}
	if b.streams == nil {
		b.streams = map[string][][]byte{}
	}
	b.streams[stream] = append(b.streams[stream], payload)
	return fmt.Sprintf("%d-0", len(b.streams[stream])), nil
}

func (b *fakeBus) Recent(_ context.Context, stream string, n int) ([]domain.JournalEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	all := b.streams[stream]
	if len(all) > n {
		all = all[len(all)-n:]
	}
	out := make([]domain.JournalEntry, len(all))
	for i, p := range all {
		out[i] = domain.JournalEntry{ID: fmt.Sprintf("%d-0", i+1), Payload: p}
	}
	return out, nil
}

func (b *fakeBus) on(channel string) []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []published
	for _, p := range b.pubs {
		if p.channel == channel {
			out = append(out, p)
		}
	}
	return out
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
	titles []string
}

func (n *fakeNotifier) Notify(_ context.Context, a notify.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, a.Event)
	n.titles = append(n.titles, a.Title)
	return nil
}

type memElevationCache struct {
	mu     sync.Mutex
	values map[string]float64
	getErr error
}

func newMemElevationCache() *memElevationCache {
	return &memElevationCache{values: map[string]float64{}}
}

func cacheKey(lat, lon float64) string { return fmt.Sprintf("%.3f:%.3f", lat, lon) }

func (c *memElevationCache) Get(_ context.Context, lat, lon float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return 0, c.getErr
	}
	v, ok := c.values[cacheKey(lat, lon)]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return v, nil
}

func (c *memElevationCache) Set(_ context.Context, lat, lon, elev float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[cacheKey(lat, lon)] = elev
	return nil
}

type memBodyCache struct {
	mu     sync.Mutex
	bodies map[string]domain.SmallBody
}

func (c *memBodyCache) Get(_ context.Context, designation string) (domain.SmallBody, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bodies[strings.ToLower(designation)]
	if !ok {
		return domain.SmallBody{}, domain.ErrNotFound
	}
	return b, nil
}

func (c *memBodyCache) Set(_ context.Context, b domain.SmallBody) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bodies == nil {
		c.bodies = map[string]domain.SmallBody{}
	}
	c.bodies[strings.ToLower(b.Designation)] = b
	return nil
}

type fakeArchiver struct {
	mu      sync.Mutex
	studies []string
	batches map[string]int
	err     error
}

func (a *fakeArchiver) ArchiveStudy(_ context.Context, s domain.StudyResult) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.studies = append(a.studies, s.ID)
	return "studies/" + s.ID + ".jsonl", nil
}

func (a *fakeArchiver) ArchiveReports(_ context.Context, batch string, reports []domain.Report) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.batches == nil {
		a.batches = map[string]int{}
	}
	a.batches[batch] = len(reports)
	return "reports/" + batch + ".jsonl", nil
}

type memBlobs map[string]string

func (m memBlobs) Open(_ context.Context, key string) (*domain.Blob, error) {
	s, ok := m[key]
	if !ok {
		return nil, domain.NotFound("archive", key)
	}
	return &domain.Blob{
		ReadCloser: io.NopCloser(strings.NewReader(s)),
		Info:       domain.BlobInfo{Key: key, Size: int64(len(s)), ContentType: "application/x-ndjson"},
	}, nil
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}
