package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// ArchiveImpl implements domain.Archiver by serializing results to JSONL and
// uploading them. A study bundle holds one header line followed by one line
// per cell in index order; a report bundle holds one report per line.
type ArchiveImpl struct {
	writer domain.BlobWriter
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewArchiver creates an archiver. audit may be nil.
func NewArchiver(writer domain.BlobWriter, audit domain.AuditStore, logger *slog.Logger) *ArchiveImpl {
	return &ArchiveImpl{writer: writer, audit: audit, logger: logger}
}

// studyHeader is the first line of a study bundle.
type studyHeader struct {
	ID         string                  `json:"id"`
	Base       domain.ImpactParameters `json:"base_parameters"`
	Axes       []domain.StudyAxis      `json:"axes"`
	Summary    domain.StudySummary     `json:"summary"`
	CreatedAt  time.Time               `json:"created_at"`
	DurationMs int64                   `json:"duration_ms"`
	Cells      int                     `json:"cells"`
}

// ArchiveStudy writes s to studies/YYYY/MM/DD/{id}.jsonl and returns the path.
func (a *ArchiveImpl) ArchiveStudy(ctx context.Context, s domain.StudyResult) (string, error) {
	if s.ID == "" {
		return "", domain.Validation("study_id", s.ID, "must not be empty")
	}

	header := studyHeader{
		ID:         s.ID,
		Base:       s.Base,
		Axes:       s.Axes,
		Summary:    s.Summary,
		CreatedAt:  s.CreatedAt,
		DurationMs: s.DurationMs,
		Cells:      len(s.Cells),
	}
	buf, err := marshalJSONL(append([]any{header}, toAny(s.Cells)...))
	if err != nil {
		return "", fmt.Errorf("s3blob: archive study %s marshal: %w", s.ID, err)
	}

	path := StudyPath(s.ID, s.CreatedAt)
	if err := a.upload(ctx, path, buf); err != nil {
		return "", fmt.Errorf("s3blob: archive study %s upload: %w", s.ID, err)
	}
	a.logAudit(ctx, domain.AuditArchiveStudy, s.ID, map[string]any{"path": path, "cells": len(s.Cells)})
	return path, nil
}

// ArchiveReports writes a batch of reports to
// reports/YYYY/MM/DD/{batch}.jsonl and returns the path.
func (a *ArchiveImpl) ArchiveReports(ctx context.Context, batch string, reports []domain.Report) (string, error) {
	if batch == "" {
		return "", domain.Validation("batch", batch, "must not be empty")
	}
	if len(reports) == 0 {
		return "", nil
	}

	buf, err := marshalJSONL(reports)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive reports %s marshal: %w", batch, err)
	}

	path := ReportBatchPath(batch, reports[0].CreatedAt)
	if err := a.upload(ctx, path, buf); err != nil {
		return "", fmt.Errorf("s3blob: archive reports %s upload: %w", batch, err)
	}
	a.logAudit(ctx, domain.AuditArchiveReports, batch, map[string]any{"path": path, "count": len(reports)})
	return path, nil
}

func (a *ArchiveImpl) upload(ctx context.Context, path string, buf []byte) error {
	return a.writer.Upload(ctx, path, buf, ContentTypeJSONL)
}

// logAudit records an archive event. Audit failures never fail an archive.
func (a *ArchiveImpl) logAudit(ctx context.Context, event, subject string, detail map[string]any) {
	if a.audit == nil {
		return
	}
	if err := a.audit.Log(ctx, domain.AuditEntry{Event: event, Subject: subject, Detail: detail}); err != nil {
		a.logger.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
	}
}

// StudyPath is the object key of a study bundle, partitioned by UTC day.
//
//	studies/2026/10/14/3f2a....jsonl
func StudyPath(id string, created time.Time) string {
	return fmt.Sprintf("studies/%s/%s.jsonl", created.UTC().Format("2006/01/02"), id)
}

// ReportBatchPath is the object key of a batch-mode report bundle.
func ReportBatchPath(batch string, created time.Time) string {
	return fmt.Sprintf("reports/%s/%s.jsonl", created.UTC().Format("2006/01/02"), batch)
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*ArchiveImpl)(nil)
