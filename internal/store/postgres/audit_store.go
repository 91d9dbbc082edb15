package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// AuditStore implements domain.AuditStore on the audit_log table.
type AuditStore struct {
	pool *pgxpool.Pool
}

func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Log appends e. CreatedAt and ID are assigned by the database.
func (s *AuditStore) Log(ctx context.Context, e domain.AuditEntry) error {
	if e.Event == "" {
		return domain.Validation("event", e.Event, "must not be empty")
	}
	var detail []byte
	if len(e.Detail) > 0 {
		var err error
		if detail, err = json.Marshal(e.Detail); err != nil {
			return fmt.Errorf("postgres: marshal audit detail: %w", err)
		}
	}
	const q = `INSERT INTO audit_log (event, subject, detail) VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, q, e.Event, e.Subject, detail); err != nil {
		return fmt.Errorf("postgres: audit %s %s: %w", e.Event, e.Subject, err)
	}
	return nil
}

// List returns matching entries, newest first.
func (s *AuditStore) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	query, args := auditQuery(f)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanAudit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit: %w", err)
	}
	return entries, nil
}

// auditQuery builds the filtered listing. Pagination and the time window go
// through appendListOpts like every other listing.
func auditQuery(f domain.AuditFilter) (string, []any) {
	query := `SELECT id, event, subject, detail, created_at FROM audit_log WHERE 1=1`
	var args []any
	if f.Event != "" {
		args = append(args, f.Event)
		query += fmt.Sprintf(" AND event = $%d", len(args))
	}
	if f.Subject != "" {
		args = append(args, f.Subject)
		query += fmt.Sprintf(" AND subject = $%d", len(args))
	}
	return appendListOpts(query, args, f.ListOpts)
}

func scanAudit(row pgx.CollectableRow) (domain.AuditEntry, error) {
	var e domain.AuditEntry
	var detail []byte
	if err := row.Scan(&e.ID, &e.Event, &e.Subject, &detail, &e.CreatedAt); err != nil {
		return e, err
	}
	if len(detail) > 0 {
		if err := json.Unmarshal(detail, &e.Detail); err != nil {
			return e, fmt.Errorf("audit %d detail: %w", e.ID, err)
		}
	}
	return e, nil
}

var _ domain.AuditStore = (*AuditStore)(nil)
