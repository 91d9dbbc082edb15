package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// ReportStore persists analysis reports.
type ReportStore interface {
	Save(ctx context.Context, r Report) error
	GetByID(ctx context.Context, id string) (Report, error)
	List(ctx context.Context, opts ListOpts) ([]ReportSummary, error)
	Count(ctx context.Context) (int64, error)
}

// StudyStore persists parameter studies.
type StudyStore interface {
	Save(ctx context.Context, s StudyResult) error
	GetByID(ctx context.Context, id string) (StudyResult, error)
}

// Audit events.
const (
	AuditReportCreated  = "report.created"
	AuditStudyCompleted = "study.completed"
	AuditBatchCompleted = "batch.completed"
	AuditArchiveStudy   = "archive.study"
	AuditArchiveReports = "archive.reports"
)

// AuditEntry records one auditable event. Subject is the id of the report,
// study or batch the event is about.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Subject   string         `json:"subject"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditFilter narrows an audit listing. Empty fields match everything.
type AuditFilter struct {
	Event   string
	Subject string
	ListOpts
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, e AuditEntry) error
	List(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}
