package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/metrics"
	"github.com/alanyoungcy/impactsim/internal/notify"
	"github.com/alanyoungcy/impactsim/internal/observability"
	"github.com/alanyoungcy/impactsim/internal/study"
)

// progressEvents caps the number of progress events published per study.
const progressEvents = 50

// StudyRequest describes a parameter sweep.
type StudyRequest struct {
	Base domain.ImpactParameters `json:"base_parameters"`
	Axes []domain.StudyAxis      `json:"axes"`
}

// StudyDeps groups the collaborators of a StudyService. Runner and Logger
// are required.
type StudyDeps struct {
	Runner   *study.Runner
	Studies  domain.StudyStore
	Archiver domain.Archiver
	Archive  domain.BlobReader
	Bus      domain.SignalBus
	Audit    domain.AuditStore
	Notifier Notifier
	Metrics  *metrics.Collector
	Logger   *slog.Logger
	NewID    func() string
}

// StudyService runs, persists and archives parameter studies.
type StudyService struct {
	d  StudyDeps
	wg sync.WaitGroup
}

// NewStudyService creates a StudyService.
func NewStudyService(d StudyDeps) *StudyService {
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	d.Logger = d.Logger.With(slog.String("component", "study_service"))
	return &StudyService{d: d}
}

// Run evaluates the study synchronously and returns the stored result.
func (s *StudyService) Run(ctx context.Context, req StudyRequest) (domain.StudyResult, error) {
	if _, err := s.d.Runner.Plan(req.Base, req.Axes); err != nil {
		return domain.StudyResult{}, fmt.Errorf("study_service: run: %w", err)
	}
	res, err := s.run(ctx, s.d.NewID(), req)
	if err != nil {
		return domain.StudyResult{}, fmt.Errorf("study_service: run: %w", err)
	}
	return res, nil
}

// Submit validates the study, starts it in the background and returns its
// id at once. Progress is published on domain.StudyChannel(id). The run is
// detached from ctx's cancellation; Wait blocks until it finishes.
func (s *StudyService) Submit(ctx context.Context, req StudyRequest) (string, error) {
	cells, err := s.d.Runner.Plan(req.Base, req.Axes)
	if err != nil {
		return "", fmt.Errorf("study_service: submit: %w", err)
	}
	id := s.d.NewID()
	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.run(bg, id, req); err != nil {
			s.d.Logger.ErrorContext(bg, "background study failed",
				slog.String("study_id", id),
				slog.String("error", err.Error()),
			)
		}
	}()
	s.d.Logger.InfoContext(ctx, "study submitted", slog.String("study_id", id), slog.Int("cells", len(cells)))
	return id, nil
}

// Wait blocks until every submitted study has finished.
func (s *StudyService) Wait() {
	s.wg.Wait()
}

func (s *StudyService) run(ctx context.Context, id string, req StudyRequest) (_ domain.StudyResult, err error) {
	ctx, span := observability.Start(ctx, "study.run", attribute.String("study_id", id))
	defer func() { observability.End(span, err) }()

	res, err := s.d.Runner.Run(ctx, req.Base, req.Axes, study.WithProgress(func(completed, total int) {
		step := max(1, total/progressEvents)
		if completed%step == 0 || completed == total {
			s.publishProgress(ctx, domain.EventStudyProgress, domain.StudyProgress{
				StudyID: id, Completed: completed, Total: total,
			})
		}
	}))
	if err != nil {
		return domain.StudyResult{}, err
	}
	res.ID = id
	span.SetAttributes(attribute.Int("cells", len(res.Cells)))
	s.d.Metrics.StudyFinished(res.Summary.Succeeded, res.Summary.Failed, time.Duration(res.DurationMs)*time.Millisecond)

	if s.d.Studies != nil {
		if err := s.d.Studies.Save(ctx, res); err != nil {
			return domain.StudyResult{}, fmt.Errorf("save study: %w", err)
		}
	}
	if s.d.Archiver != nil {
		path, err := s.d.Archiver.ArchiveStudy(ctx, res)
		if err != nil {
			s.d.Logger.WarnContext(ctx, "study archive failed",
				slog.String("study_id", id),
				slog.String("error", err.Error()),
			)
		} else {
			res.ArchivePath = path
			if s.d.Studies != nil {
				if err := s.d.Studies.Save(ctx, res); err != nil {
					return domain.StudyResult{}, fmt.Errorf("save study archive path: %w", err)
				}
			}
		}
	}

	s.finish(ctx, res)
	return res, nil
}

// finish announces a completed study. Failures here are logged only.
func (s *StudyService) finish(ctx context.Context, res domain.StudyResult) {
	done := domain.StudyProgress{StudyID: res.ID, Completed: len(res.Cells), Total: len(res.Cells), Done: true}
	s.publishProgress(ctx, domain.EventStudyCompleted, done)

	if s.d.Bus != nil {
		payload, err := domain.NewEvent(domain.EventStudyCompleted, res.CreatedAt.Add(time.Duration(res.DurationMs)*time.Millisecond), studyDigest(res))
		if err == nil {
			_, err = s.d.Bus.Append(ctx, domain.StreamStudies, payload)
		}
		if err != nil {
			s.d.Logger.WarnContext(ctx, "study stream append failed",
				slog.String("study_id", res.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.d.Audit != nil {
		entry := domain.AuditEntry{Event: domain.AuditStudyCompleted, Subject: res.ID, Detail: studyDigest(res)}
		if err := s.d.Audit.Log(ctx, entry); err != nil {
			s.d.Logger.WarnContext(ctx, "audit log failed",
				slog.String("study_id", res.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.d.Notifier != nil {
		if err := s.d.Notifier.Notify(ctx, notify.StudyCompleted(res)); err != nil {
			s.d.Logger.WarnContext(ctx, "study notification failed",
				slog.String("study_id", res.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	s.d.Logger.InfoContext(ctx, "study completed",
		slog.String("study_id", res.ID),
		slog.Int("cells", len(res.Cells)),
		slog.Int("failed", res.Summary.Failed),
		slog.Int64("duration_ms", res.DurationMs),
	)
}

func studyDigest(res domain.StudyResult) map[string]any {
	d := map[string]any{
		"study_id":  res.ID,
		"cells":     len(res.Cells),
		"succeeded": res.Summary.Succeeded,
		"failed":    res.Summary.Failed,
	}
	if res.ArchivePath != "" {
		d["archive_path"] = res.ArchivePath
	}
	return d
}

func (s *StudyService) publishProgress(ctx context.Context, typ string, p domain.StudyProgress) {
	if s.d.Bus == nil {
		return
	}
	payload, err := domain.NewEvent(typ, time.Now(), p)
	if err == nil {
		err = s.d.Bus.Publish(ctx, domain.StudyChannel(p.StudyID), payload)
	}
	if err != nil {
		s.d.Logger.WarnContext(ctx, "publish study progress failed",
			slog.String("study_id", p.StudyID),
			slog.String("error", err.Error()),
		)
	}
}

// Get loads a stored study.
func (s *StudyService) Get(ctx context.Context, id string) (domain.StudyResult, error) {
	if s.d.Studies == nil {
		return domain.StudyResult{}, domain.Unavailable("studies", fmt.Errorf("no study store configured"))
	}
	res, err := s.d.Studies.GetByID(ctx, id)
	if err != nil {
		return domain.StudyResult{}, fmt.Errorf("study_service: get %q: %w", id, err)
	}
	return res, nil
}

// OpenArchive streams the JSONL bundle of a stored study. The caller closes
// the reader.
func (s *StudyService) OpenArchive(ctx context.Context, id string) (*domain.Blob, error) {
	if s.d.Archive == nil {
		return nil, domain.Unavailable("archive", fmt.Errorf("no archive reader configured"))
	}
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.ArchivePath == "" {
		return nil, domain.NotFound("archive_path", id)
	}
	blob, err := s.d.Archive.Open(ctx, res.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("study_service: open archive %q: %w", id, err)
	}
	return blob, nil
}
