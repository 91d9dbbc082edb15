package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// uniqueViolation is the SQLSTATE for a duplicate primary key.
const uniqueViolation = "23505"

// ReportStore implements domain.ReportStore. The full report is kept as
// JSONB; the summary columns serve the list endpoint without decoding it.
type ReportStore struct {
	pool *pgxpool.Pool
}

// NewReportStore creates a new ReportStore backed by the given pool.
func NewReportStore(pool *pgxpool.Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

// Save inserts a report. Reports are immutable, so a duplicate ID yields
// domain.ErrAlreadyExists.
func (s *ReportStore) Save(ctx context.Context, r domain.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("postgres: marshal report %s: %w", r.ID, err)
	}
	sum := r.Summary()
	var risk *string
	if sum.RiskLevel != nil {
		v := sum.RiskLevel.String()
		risk = &v
	}

	const query = `
		INSERT INTO reports (
			id, scenario_id, diameter_m, kinetic_energy_mt,
			estimated_deaths, risk_level, body, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = s.pool.Exec(ctx, query,
		r.ID, r.ScenarioID, sum.DiameterM, sum.KineticEnergyMt,
		sum.EstimatedDeaths, risk, body, r.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("postgres: save report %s: %w", r.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: save report %s: %w", r.ID, err)
	}
	return nil
}

// GetByID returns the stored report, or domain.ErrNotFound.
func (s *ReportStore) GetByID(ctx context.Context, id string) (domain.Report, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM reports WHERE id = $1`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Report{}, domain.NotFound("report_id", id)
		}
		return domain.Report{}, fmt.Errorf("postgres: get report %s: %w", id, err)
	}

	var r domain.Report
	if err := json.Unmarshal(body, &r); err != nil {
		return domain.Report{}, fmt.Errorf("postgres: unmarshal report %s: %w", id, err)
	}
	return r, nil
}

// List returns report summaries, newest first.
func (s *ReportStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.ReportSummary, error) {
	query, args := appendListOpts(`
		SELECT id, created_at, scenario_id, diameter_m, kinetic_energy_mt,
		       estimated_deaths, risk_level
		FROM reports WHERE 1=1`, nil, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list reports: %w", err)
	}
	defer rows.Close()

	out := []domain.ReportSummary{}
	for rows.Next() {
		var sum domain.ReportSummary
		var risk *string
		if err := rows.Scan(
			&sum.ID, &sum.CreatedAt, &sum.ScenarioID, &sum.DiameterM,
			&sum.KineticEnergyMt, &sum.EstimatedDeaths, &risk,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan report: %w", err)
		}
		if risk != nil {
			lvl, err := domain.ParseRiskLevel(*risk)
			if err != nil {
				return nil, fmt.Errorf("postgres: scan report %s: %w", sum.ID, err)
			}
			sum.RiskLevel = &lvl
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list reports rows: %w", err)
	}
	return out, nil
}

// Count returns the number of stored reports.
func (s *ReportStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM reports").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count reports: %w", err)
	}
	return count, nil
}

var _ domain.ReportStore = (*ReportStore)(nil)
