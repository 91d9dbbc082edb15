// Package tsunami classifies the tsunami risk of an impact from the
// elevation of the impact point and a ring of coastal samples around it.
package tsunami

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/geo"
)

// Assessor evaluates the decision table. It is safe for concurrent use.
type Assessor struct {
	cfg    Config
	logger *slog.Logger
}

// NewAssessor returns an Assessor using cfg.
func NewAssessor(cfg Config, logger *slog.Logger) *Assessor {
	return &Assessor{cfg: cfg, logger: logger.With(slog.String("component", "tsunami"))}
}

// Config returns the thresholds in use.
func (a *Assessor) Config() Config { return a.cfg }

// Assess classifies an impact. Elevation failures never surface as errors:
// a failed impact-point lookup is treated as land and every failure marks
// the result incomplete. Only invalid parameters return an error.
func (a *Assessor) Assess(ctx context.Context, p domain.ImpactParameters, src domain.ElevationSource) (domain.TsunamiAssessment, error) {
	if err := p.Validate(); err != nil {
		return domain.TsunamiAssessment{}, fmt.Errorf("tsunami: assess: %w", err)
	}

	out := domain.TsunamiAssessment{
		SizeCategory:    a.SizeCategory(p.DiameterM),
		SearchRadiusKm:  a.cfg.SearchRadiusKm,
		AffectedRegions: []string{},
		DataQuality:     domain.QualityComplete,
	}

	reading, err := lookupSourced(ctx, src, p.ImpactLat, p.ImpactLon)
	elev := reading.Value
	if err != nil {
		a.logger.WarnContext(ctx, "impact elevation unavailable, assuming land",
			slog.Float64("lat", p.ImpactLat),
			slog.Float64("lon", p.ImpactLon),
			slog.Any("error", err),
		)
		out.ImpactElevation = domain.Fallback(a.cfg.FallbackElevationM, "elevation lookup failed; assumed land")
		out.DataQuality = domain.QualityIncomplete
	} else {
		out.ImpactElevation = reading
		out.IsWaterImpact = elev <= 0
	}

	if !out.IsWaterImpact {
		out.RiskScore = a.sizeScore(p.DiameterM)
		out.RiskLevel = domain.RiskMinimal
		out.Warnings = warningsFor(out.RiskLevel, 0, nil)
		return out, nil
	}

	out.Samples = a.sampleRing(ctx, p.ImpactLat, p.ImpactLon, src)
	var water, ok int
	deepest := 0.0
	for _, s := range out.Samples {
		if s.Failed {
			continue
		}
		ok++
		if s.Water {
			water++
			deepest = math.Min(deepest, s.ElevationM)
		}
	}
	if ok < len(out.Samples) {
		out.DataQuality = domain.QualityIncomplete
		a.logger.WarnContext(ctx, "coastal samples incomplete",
			slog.Float64("lat", p.ImpactLat),
			slog.Float64("lon", p.ImpactLon),
			slog.Int("failed", len(out.Samples)-ok),
		)
	}
	if ok > 0 {
		out.WaterToLandRatio = float64(water) / float64(ok)
	}

	out.WaterDepthM = math.Max(0, -deepest)
	out.MaxWaveHeightM = a.WaveHeight(p.DiameterM, out.WaterDepthM)
	out.RiskScore = a.sizeScore(p.DiameterM) + a.locationScore(elev) + a.ratioScore(out.WaterToLandRatio)
	out.RiskLevel = a.levelFor(out.RiskScore)
	out.AffectedRegions = coastalRegions(p.ImpactLat, p.ImpactLon, a.cfg.MaxRegions)
	out.Warnings = warningsFor(out.RiskLevel, out.MaxWaveHeightM, out.AffectedRegions)
	return out, nil
}

// QuickCheck screens a point with a single elevation lookup.
func (a *Assessor) QuickCheck(ctx context.Context, lat, lon, diameterM float64, src domain.ElevationSource) (domain.TsunamiQuickCheck, error) {
	if err := domain.ValidateCoordinates(lat, lon); err != nil {
		return domain.TsunamiQuickCheck{}, fmt.Errorf("tsunami: quick check: %w", err)
	}
	if math.IsNaN(diameterM) || diameterM <= 0 {
		return domain.TsunamiQuickCheck{}, domain.Validation("diameter_m", diameterM, "must be > 0")
	}

	out := domain.TsunamiQuickCheck{
		SizeCategory: a.SizeCategory(diameterM),
		DiameterM:    diameterM,
		Location:     domain.Location{Lat: lat, Lon: lon},
	}
	reading, err := lookupSourced(ctx, src, lat, lon)
	if err != nil {
		out.Elevation = domain.Fallback(a.cfg.FallbackElevationM, "elevation lookup failed; assumed land")
	} else {
		out.Elevation = reading
		out.IsWaterImpact = reading.Value <= 0
	}

	t := a.cfg.SizeThresholdsM
	switch {
	case !out.IsWaterImpact:
		out.RiskLevel, out.QuickAssessment = domain.RiskMinimal, "Land impact - minimal tsunami risk"
	case diameterM < t[0]:
		out.RiskLevel, out.QuickAssessment = domain.RiskMinimal, "Small asteroid, water impact - low tsunami risk"
	case diameterM < t[1]:
		out.RiskLevel, out.QuickAssessment = domain.RiskLow, "Moderate asteroid, water impact - possible local tsunamis"
	case diameterM < t[2]:
		out.RiskLevel, out.QuickAssessment = domain.RiskModerate, "Large asteroid, water impact - regional tsunami risk"
	default:
		out.RiskLevel, out.QuickAssessment = domain.RiskHigh, "Very large asteroid, water impact - major tsunami risk"
	}
	return out, nil
}

// SizeCategory buckets a diameter. It is non-decreasing in diameterM.
func (a *Assessor) SizeCategory(diameterM float64) domain.SizeCategory {
	cat := domain.SizeNegligible
	for _, t := range a.cfg.SizeThresholdsM {
		if diameterM >= t {
			cat++
		}
	}
	return cat
}

// WaveHeight estimates the coastal wave height in meters. Shallower water
// yields larger waves.
func (a *Assessor) WaveHeight(diameterM, depthM float64) float64 {
	factor := a.cfg.WaveEnergyFactors[0]
	for i, band := range a.cfg.WaveBandsM {
		if diameterM >= band {
			factor = a.cfg.WaveEnergyFactors[i+1]
		}
	}
	depth := math.Max(1, a.cfg.WaveDepthRefM/math.Max(depthM, a.cfg.WaveMinDepthM))
	return math.Min(factor*depth*a.cfg.WaveScale, a.cfg.WaveCapM)
}

func (a *Assessor) sizeScore(diameterM float64) int {
	score := 1
	for _, band := range a.cfg.ScoreBandsM {
		if diameterM > band {
			score++
		}
	}
	return score
}

func (a *Assessor) locationScore(elevationM float64) int {
	switch {
	case elevationM > 0:
		return 0
	case elevationM < -a.cfg.DeepWaterM:
		return 3
	case elevationM < -a.cfg.ShelfWaterM:
		return 4
	default:
		return 5
	}
}

func (a *Assessor) ratioScore(ratio float64) int {
	switch {
	case ratio > a.cfg.RatioHigh:
		return 2
	case ratio > a.cfg.RatioMid:
		return 1
	default:
		return 0
	}
}

func (a *Assessor) levelFor(score int) domain.RiskLevel {
	level := domain.RiskMinimal
	for _, cut := range a.cfg.TierCutoffs {
		if score >= cut {
			level++
		}
	}
	return level
}

func (a *Assessor) sampleRing(ctx context.Context, lat, lon float64, src domain.ElevationSource) []domain.ElevationSample {
	bearings := geo.Bearings(a.cfg.SampleCount)
	points := geo.Ring(lat, lon, a.cfg.SearchRadiusKm, a.cfg.SampleCount)
	out := make([]domain.ElevationSample, len(points))

	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)
	for i, pt := range points {
		g.Go(func() error {
			s := domain.ElevationSample{BearingDeg: bearings[i], Lat: pt.Lat, Lon: pt.Lon}
			elev, err := lookup(ctx, src, pt.Lat, pt.Lon)
			if err != nil {
				s.Failed = true
			} else {
				s.ElevationM = elev
				s.Water = elev <= 0
			}
			out[i] = s
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func lookup(ctx context.Context, src domain.ElevationSource, lat, lon float64) (float64, error) {
	if src == nil {
		return 0, domain.Unavailable("elevation", fmt.Errorf("no elevation source configured"))
	}
	elev, err := src.Elevation(ctx, lat, lon)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(elev) || math.IsInf(elev, 0) {
		return 0, domain.Unavailable("elevation", fmt.Errorf("non-finite elevation %v", elev))
	}
	return elev, nil
}

// lookupSourced is lookup with provenance: sources that distinguish cached
// readings report it, everything else is live.
func lookupSourced(ctx context.Context, src domain.ElevationSource, lat, lon float64) (domain.Sourced[float64], error) {
	if ss, ok := src.(domain.SourcedElevation); ok {
		r, err := ss.SourcedElevation(ctx, lat, lon)
		if err != nil {
			return domain.Sourced[float64]{}, err
		}
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return domain.Sourced[float64]{}, domain.Unavailable("elevation", fmt.Errorf("non-finite elevation %v", r.Value))
		}
		return r, nil
	}
	elev, err := lookup(ctx, src, lat, lon)
	if err != nil {
		return domain.Sourced[float64]{}, err
	}
	return domain.Live(elev), nil
}
