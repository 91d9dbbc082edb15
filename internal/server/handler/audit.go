package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// AuditLog is the read side of the audit trail.
type AuditLog interface {
	List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error)
}

// AuditHandler lists audit entries. log may be nil when no database is
// configured.
type AuditHandler struct {
	log    AuditLog
	logger *slog.Logger
}

func NewAuditHandler(log AuditLog, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{log: log, logger: logHandler(logger, "audit")}
}

// List returns audit entries, newest first, filtered by ?event= and
// ?subject= plus the usual pagination and time window.
// GET /api/audit
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		writeDomainError(w, r, h.logger, "list audit", domain.Unavailable("audit", errors.New("no audit store configured")))
		return
	}
	opts, err := parseListOpts(r)
	if err != nil {
		writeDomainError(w, r, h.logger, "list audit", err)
		return
	}
	q := r.URL.Query()
	entries, err := h.log.List(r.Context(), domain.AuditFilter{
		Event:    strings.TrimSpace(q.Get("event")),
		Subject:  strings.TrimSpace(q.Get("subject")),
		ListOpts: opts,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, "list audit", err)
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}
