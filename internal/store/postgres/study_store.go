package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// StudyStore implements domain.StudyStore.
type StudyStore struct {
	pool *pgxpool.Pool
}

// NewStudyStore creates a new StudyStore backed by the given pool.
func NewStudyStore(pool *pgxpool.Pool) *StudyStore {
	return &StudyStore{pool: pool}
}

// Save upserts a study. Re-saving updates the archive path once the JSONL
// bundle has been written.
func (s *StudyStore) Save(ctx context.Context, st domain.StudyResult) error {
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("postgres: marshal study %s: %w", st.ID, err)
	}

	const query = `
		INSERT INTO studies (
			id, cell_count, failed_cells, duration_ms, archive_path, body, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			cell_count   = EXCLUDED.cell_count,
			failed_cells = EXCLUDED.failed_cells,
			duration_ms  = EXCLUDED.duration_ms,
			archive_path = EXCLUDED.archive_path,
			body         = EXCLUDED.body`

	_, err = s.pool.Exec(ctx, query,
		st.ID, len(st.Cells), st.Summary.Failed, st.DurationMs,
		st.ArchivePath, body, st.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save study %s: %w", st.ID, err)
	}
	return nil
}

// GetByID returns the stored study, or domain.ErrNotFound.
func (s *StudyStore) GetByID(ctx context.Context, id string) (domain.StudyResult, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM studies WHERE id = $1`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StudyResult{}, domain.NotFound("study_id", id)
		}
		return domain.StudyResult{}, fmt.Errorf("postgres: get study %s: %w", id, err)
	}

	var st domain.StudyResult
	if err := json.Unmarshal(body, &st); err != nil {
		return domain.StudyResult{}, fmt.Errorf("postgres: unmarshal study %s: %w", id, err)
	}
	return st, nil
}

var _ domain.StudyStore = (*StudyStore)(nil)
