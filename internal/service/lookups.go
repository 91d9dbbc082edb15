package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/orbit"
	"github.com/alanyoungcy/impactsim/internal/tsunami"
)

// AssessTsunami runs the tsunami model alone.
func (s *ImpactService) AssessTsunami(ctx context.Context, p domain.ImpactParameters) (domain.TsunamiAssessment, error) {
	ts, err := s.d.Tsunami.Assess(ctx, p, s.d.Elevation)
	if err != nil {
		return domain.TsunamiAssessment{}, fmt.Errorf("impact_service: assess tsunami: %w", err)
	}
	if ts.ImpactElevation.IsDefault() {
		s.d.Metrics.Fallback("elevation")
	}
	return ts, nil
}

// QuickTsunami screens one point with a single elevation lookup.
func (s *ImpactService) QuickTsunami(ctx context.Context, lat, lon, diameterM float64) (domain.TsunamiQuickCheck, error) {
	qc, err := s.d.Tsunami.QuickCheck(ctx, lat, lon, diameterM, s.d.Elevation)
	if err != nil {
		return domain.TsunamiQuickCheck{}, fmt.Errorf("impact_service: quick tsunami: %w", err)
	}
	if qc.Elevation.IsDefault() {
		s.d.Metrics.Fallback("elevation")
	}
	return qc, nil
}

// RiskLevels documents every tsunami tier.
func (s *ImpactService) RiskLevels() []domain.RiskLevelInfo {
	return tsunami.AllLevelInfo()
}

// RiskLevel documents one tsunami tier.
func (s *ImpactService) RiskLevel(level domain.RiskLevel) (domain.RiskLevelInfo, error) {
	return tsunami.LevelInfo(level)
}

// BodySummary is a small body together with its orbit classification.
type BodySummary struct {
	Body domain.SmallBody `json:"body"`
	Risk domain.OrbitRisk `json:"orbit_risk"`
}

// DescribeBody looks up a designation and classifies its orbit.
func (s *ImpactService) DescribeBody(ctx context.Context, designation string) (BodySummary, error) {
	b, err := s.LookupBody(ctx, designation)
	if err != nil {
		return BodySummary{}, fmt.Errorf("impact_service: describe body: %w", err)
	}
	d := b.Physical.DiameterKm
	if d <= 0 {
		d = DefaultDiameterM / 1000
	}
	risk, err := orbit.AssessOrbit(b.Elements, d)
	if err != nil {
		return BodySummary{}, fmt.Errorf("impact_service: describe body: %w", err)
	}
	return BodySummary{Body: b, Risk: risk}, nil
}

// TrajectoryRequest asks for a sampled orbit. Exactly one of Designation and
// Elements should be set; Elements wins when both are.
type TrajectoryRequest struct {
	Designation string                  `json:"designation,omitempty"`
	Elements    *domain.OrbitalElements `json:"orbital_elements,omitempty"`
	Start       time.Time               `json:"start"`
	Days        float64                 `json:"days"`
	Points      int                     `json:"points"`
	DiameterKm  float64                 `json:"diameter_km,omitempty"`
}

// TrajectoryResult is a sampled orbit with its classification.
type TrajectoryResult struct {
	Designation string                 `json:"designation,omitempty"`
	Elements    domain.OrbitalElements `json:"orbital_elements"`
	Trajectory  domain.Trajectory      `json:"trajectory"`
	Risk        domain.OrbitRisk       `json:"orbit_risk"`
}

// Trajectory samples an orbit and reports its closest Earth approach.
func (s *ImpactService) Trajectory(ctx context.Context, req TrajectoryRequest) (TrajectoryResult, error) {
	var out TrajectoryResult
	diameterKm := req.DiameterKm
	switch {
	case req.Elements != nil:
		out.Elements = *req.Elements
	case req.Designation != "":
		b, err := s.LookupBody(ctx, req.Designation)
		if err != nil {
			return TrajectoryResult{}, fmt.Errorf("impact_service: trajectory: %w", err)
		}
		out.Designation = b.Designation
		out.Elements = b.Elements
		if diameterKm <= 0 {
			diameterKm = b.Physical.DiameterKm
		}
	default:
		return TrajectoryResult{}, domain.Validation("orbital_elements", nil, "either designation or orbital_elements is required")
	}
	if diameterKm <= 0 {
		diameterKm = DefaultDiameterM / 1000
	}
	start := req.Start
	if start.IsZero() {
		start = s.d.Now()
	}

	tr, err := s.d.Propagator.Trajectory(ctx, out.Elements, start.UTC(), req.Days, req.Points)
	if err != nil {
		return TrajectoryResult{}, fmt.Errorf("impact_service: trajectory: %w", err)
	}
	risk, err := orbit.AssessOrbit(out.Elements, diameterKm)
	if err != nil {
		return TrajectoryResult{}, fmt.Errorf("impact_service: trajectory: %w", err)
	}
	out.Trajectory, out.Risk = tr, risk
	return out, nil
}
