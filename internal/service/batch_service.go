package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/notify"
	"github.com/alanyoungcy/impactsim/internal/scenario"
)

// BatchLockKey guards batch runs so only one replica executes at a time.
const BatchLockKey = "batch"

// BatchDeps groups the collaborators of a BatchService. Impact, Catalog and
// Logger are required.
type BatchDeps struct {
	Impact   *ImpactService
	Catalog  *scenario.Catalog
	Locks    domain.LockManager
	LockTTL  time.Duration
	Archiver domain.Archiver
	Audit    domain.AuditStore
	Notifier Notifier
	Logger   *slog.Logger
	NewID    func() string
}

// BatchResult summarizes one pass over the catalog.
type BatchResult struct {
	ID          string            `json:"id"`
	Reports     []domain.Report   `json:"reports"`
	Failed      map[string]string `json:"failed,omitempty"`
	ArchivePath string            `json:"archive_path,omitempty"`
}

// BatchService analyzes every catalog scenario in one run.
type BatchService struct {
	d BatchDeps
}

// NewBatchService creates a BatchService.
func NewBatchService(d BatchDeps) *BatchService {
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.LockTTL <= 0 {
		d.LockTTL = 10 * time.Minute
	}
	d.Logger = d.Logger.With(slog.String("component", "batch_service"))
	return &BatchService{d: d}
}

// Run analyzes each scenario, archives the reports as one bundle and
// announces the batch. A failing scenario is recorded and skipped.
// Returns domain.ErrLockHeld when another replica is running.
func (s *BatchService) Run(ctx context.Context) (BatchResult, error) {
	if s.d.Locks != nil {
		unlock, err := s.d.Locks.Acquire(ctx, BatchLockKey, s.d.LockTTL)
		if err != nil {
			return BatchResult{}, fmt.Errorf("batch_service: acquire lock: %w", err)
		}
		defer unlock()
	}

	res := BatchResult{ID: s.d.NewID()}
	for _, def := range s.d.Catalog.List() {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("batch_service: run: %w", err)
		}
		r, err := s.d.Impact.RunScenario(ctx, def.ID, nil)
		if err != nil {
			s.d.Logger.WarnContext(ctx, "scenario failed",
				slog.String("scenario_id", def.ID),
				slog.String("error", err.Error()),
			)
			if res.Failed == nil {
				res.Failed = map[string]string{}
			}
			res.Failed[def.ID] = err.Error()
			continue
		}
		res.Reports = append(res.Reports, r)
	}

	if s.d.Archiver != nil && len(res.Reports) > 0 {
		path, err := s.d.Archiver.ArchiveReports(ctx, res.ID, res.Reports)
		if err != nil {
			s.d.Logger.WarnContext(ctx, "batch archive failed",
				slog.String("batch_id", res.ID),
				slog.String("error", err.Error()),
			)
		}
		res.ArchivePath = path
	}

	if s.d.Audit != nil {
		entry := domain.AuditEntry{
			Event:   domain.AuditBatchCompleted,
			Subject: res.ID,
			Detail:  map[string]any{"reports": len(res.Reports), "failed": len(res.Failed), "archive_path": res.ArchivePath},
		}
		if err := s.d.Audit.Log(ctx, entry); err != nil {
			s.d.Logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
		}
	}
	if s.d.Notifier != nil {
		alert := notify.BatchCompleted(res.ID, len(res.Reports), len(res.Failed), res.ArchivePath)
		if err := s.d.Notifier.Notify(ctx, alert); err != nil {
			s.d.Logger.WarnContext(ctx, "batch notification failed", slog.String("error", err.Error()))
		}
	}

	s.d.Logger.InfoContext(ctx, "batch completed",
		slog.String("batch_id", res.ID),
		slog.Int("reports", len(res.Reports)),
		slog.Int("failed", len(res.Failed)),
	)
	return res, nil
}
