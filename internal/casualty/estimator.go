// Package casualty turns impact effect radii into population losses using a
// three-tier ring model over an external population density source.
package casualty

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/geo"
)

// Tier names, innermost first.
const (
	TierSevere = "severe"
	TierHeavy  = "heavy"
	TierLight  = "light"
)

// Rates are the casualty fractions of one tier.
type Rates struct {
	Fatality float64 `toml:"fatality"`
	Injury   float64 `toml:"injury"`
}

// Config tunes the casualty model.
type Config struct {
	DefaultDensityPerKm2 float64 `toml:"default_density_per_km2"`
	WorldPopulation      float64 `toml:"world_population"`
	RingSamples          int     `toml:"ring_samples"`
	Concurrency          int     `toml:"concurrency"`
	Severe               Rates   `toml:"severe"`
	Heavy                Rates   `toml:"heavy"`
	Light                Rates   `toml:"light"`
}

// DefaultConfig returns the reference model.
func DefaultConfig() Config {
	return Config{
		DefaultDensityPerKm2: 50,
		WorldPopulation:      8.1e9,
		RingSamples:          8,
		Concurrency:          4,
		Severe:               Rates{Fatality: 0.90, Injury: 0.10},
		Heavy:                Rates{Fatality: 0.50, Injury: 0.40},
		Light:                Rates{Fatality: 0.05, Injury: 0.30},
	}
}

// Validate checks the model parameters.
func (c Config) Validate() error {
	if !(c.DefaultDensityPerKm2 > 0) {
		return fmt.Errorf("casualty: default_density_per_km2 must be > 0")
	}
	if !(c.WorldPopulation > 0) {
		return fmt.Errorf("casualty: world_population must be > 0")
	}
	if c.RingSamples < 1 {
		return fmt.Errorf("casualty: ring_samples must be >= 1")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("casualty: concurrency must be >= 1")
	}
	for name, r := range map[string]Rates{TierSevere: c.Severe, TierHeavy: c.Heavy, TierLight: c.Light} {
		if r.Fatality < 0 || r.Injury < 0 || r.Fatality+r.Injury > 1 {
			return fmt.Errorf("casualty: %s rates must be non-negative and sum to at most 1", name)
		}
	}
	return nil
}

// Estimator computes casualty estimates. It is safe for concurrent use.
type Estimator struct {
	cfg    Config
	logger *slog.Logger
}

// NewEstimator returns an Estimator using cfg.
func NewEstimator(cfg Config, logger *slog.Logger) *Estimator {
	return &Estimator{cfg: cfg, logger: logger.With(slog.String("component", "casualty"))}
}

type lookup struct {
	reading domain.DensityReading
	failed  bool
}

// Estimate evaluates the tier model around (lat, lon). Lookup failures never
// fail the estimate: each failed sample uses the default density and lowers
// the confidence to low.
func (e *Estimator) Estimate(ctx context.Context, fx domain.ImpactEffects, lat, lon float64, src domain.PopulationSource) domain.CasualtyEstimate {
	bounds := e.tierBounds(fx)

	// Sample 0 is the impact point; each outer ring gets RingSamples points
	// at its mid radius.
	points := []domain.Location{{Lat: lat, Lon: lon}}
	for _, b := range bounds[1:] {
		mid := (b.inner + b.outer) / 2
		points = append(points, geo.Ring(lat, lon, mid, e.cfg.RingSamples)...)
	}
	results := e.sample(ctx, points, src)

	failed := 0
	for _, r := range results {
		if r.failed {
			failed++
		}
	}

	out := domain.CasualtyEstimate{FailedLookups: failed}
	centre := results[0]
	if centre.failed {
		out.Density = domain.Fallback(centre.reading, "population lookup failed; global average density")
	} else {
		out.Density = domain.Live(centre.reading)
	}
	switch {
	case failed > 0:
		out.ConfidenceLevel = domain.ConfidenceLow
	case centre.reading.Regional:
		out.ConfidenceLevel = domain.ConfidenceHigh
	default:
		out.ConfidenceLevel = domain.ConfidenceMedium
	}
	if failed > 0 {
		e.logger.WarnContext(ctx, "population lookups fell back to default density",
			slog.Float64("lat", lat),
			slog.Float64("lon", lon),
			slog.Int("failed", failed),
			slog.Int("total", len(results)),
		)
	}

	var total float64
	next := 1
	for i, b := range bounds {
		density := centre.reading.PerKm2
		if i > 0 {
			density = meanDensity(results[next : next+e.cfg.RingSamples])
			next += e.cfg.RingSamples
		}
		area := geo.DiskAreaKm2(b.outer) - geo.DiskAreaKm2(b.inner)
		tier := domain.CasualtyTier{
			Name:          b.name,
			InnerRadiusKm: b.inner,
			OuterRadiusKm: b.outer,
			AreaKm2:       area,
			DensityPerKm2: density,
			Population:    area * density,
			FatalityRate:  b.rates.Fatality,
			InjuryRate:    b.rates.Injury,
		}
		total += tier.Population
		out.Tiers = append(out.Tiers, tier)
	}

	if total > e.cfg.WorldPopulation {
		scale := e.cfg.WorldPopulation / total
		for i := range out.Tiers {
			out.Tiers[i].Population *= scale
		}
		total = e.cfg.WorldPopulation
	}

	var deaths, injuries float64
	for _, t := range out.Tiers {
		deaths += t.Population * t.FatalityRate
		injuries += t.Population * t.InjuryRate
	}
	out.PopulationAffected = int64(math.Round(total))
	out.EstimatedDeaths = int64(math.Round(deaths))
	out.EstimatedInjuries = int64(math.Round(injuries))
	return out
}

type bound struct {
	name         string
	inner, outer float64
	rates        Rates
}

// tierBounds takes the outermost applicable ring per tier and forces the
// tiers to nest, so the annuli never overlap.
func (e *Estimator) tierBounds(fx domain.ImpactEffects) []bound {
	craterKm := fx.CraterDiameterM / 2 / 1000
	severe := math.Max(fx.BlastZones.SevereRadiusKm, craterKm)
	heavy := math.Max(severe, math.Max(fx.BlastZones.HeavyRadiusKm, fx.ThermalRadiusKm))
	light := math.Max(heavy, math.Max(fx.BlastZones.LightRadiusKm, fx.SeismicRadiusKm))
	return []bound{
		{TierSevere, 0, severe, e.cfg.Severe},
		{TierHeavy, severe, heavy, e.cfg.Heavy},
		{TierLight, heavy, light, e.cfg.Light},
	}
}

func (e *Estimator) sample(ctx context.Context, points []domain.Location, src domain.PopulationSource) []lookup {
	results := make([]lookup, len(points))
	fallback := domain.DensityReading{PerKm2: e.cfg.DefaultDensityPerKm2}
	if src == nil {
		for i := range results {
			results[i] = lookup{reading: fallback, failed: true}
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i, p := range points {
		g.Go(func() error {
			r, err := src.Density(ctx, p.Lat, p.Lon)
			if err != nil || math.IsNaN(r.PerKm2) || r.PerKm2 < 0 {
				e.logger.DebugContext(ctx, "population lookup failed",
					slog.Float64("lat", p.Lat),
					slog.Float64("lon", p.Lon),
					slog.Any("error", err),
				)
				results[i] = lookup{reading: fallback, failed: true}
				return nil
			}
			results[i] = lookup{reading: r}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func meanDensity(rs []lookup) float64 {
	if len(rs) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rs {
		sum += r.reading.PerKm2
	}
	return sum / float64(len(rs))
}
