// Package study runs the physics engine over a Cartesian grid of parameter
// values. Every combination is generated up front with its index, then cells
// are evaluated in parallel, each writing only its own slot.
package study

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// Evaluator computes the effects of one parameter set.
type Evaluator interface {
	ComputeEffects(p domain.ImpactParameters) (domain.ImpactEffects, error)
}

// Config bounds the size and parallelism of a study.
type Config struct {
	Workers  int `toml:"workers"`
	MaxCells int `toml:"max_cells"`
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{Workers: 8, MaxCells: 10000}
}

// Validate checks the limits.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("study: workers must be >= 1")
	}
	if c.MaxCells < 1 {
		return fmt.Errorf("study: max_cells must be >= 1")
	}
	return nil
}

var defaultValues = map[string][]float64{
	domain.ParamDiameter: {50, 100, 200, 500, 1000},
	domain.ParamVelocity: {10, 15, 20, 25, 30},
	domain.ParamAngle:    {15, 30, 45, 60, 90},
	domain.ParamDensity:  {1500, 2000, 2600, 3300, 7800},
}

// DefaultValues returns the preset sweep for a parameter.
func DefaultValues(parameter string) ([]float64, error) {
	v, ok := defaultValues[parameter]
	if !ok {
		return nil, unknownParameter(parameter)
	}
	return append([]float64(nil), v...), nil
}

// Parameters lists the names a study may vary.
func Parameters() []string {
	return []string{domain.ParamDiameter, domain.ParamVelocity, domain.ParamDensity, domain.ParamAngle}
}

func unknownParameter(name string) error {
	return domain.Validation("parameter", name,
		"unknown parameter (valid: diameter_m, velocity_km_s, density_kg_m3, angle_degrees)")
}

func set(p *domain.ImpactParameters, name string, v float64) {
	switch name {
	case domain.ParamDiameter:
		p.DiameterM = v
	case domain.ParamVelocity:
		p.VelocityKmS = v
	case domain.ParamDensity:
		p.DensityKgM3 = v
	case domain.ParamAngle:
		p.AngleDeg = v
	}
}

// Combinations enumerates the grid in row-major order: the first axis
// varies slowest. It fails before generating anything when an axis is
// invalid or the grid would exceed maxCells.
func Combinations(base domain.ImpactParameters, axes []domain.StudyAxis, maxCells int) ([]domain.StudyCell, error) {
	if len(axes) == 0 {
		return nil, domain.Validation("axes", nil, "at least one parameter must vary")
	}
	seen := make(map[string]bool, len(axes))
	total := 1
	for _, ax := range axes {
		if _, ok := defaultValues[ax.Parameter]; !ok {
			return nil, unknownParameter(ax.Parameter)
		}
		if seen[ax.Parameter] {
			return nil, domain.Validation("parameter", ax.Parameter, "listed more than once")
		}
		seen[ax.Parameter] = true
		if len(ax.Values) == 0 {
			return nil, domain.Validation(ax.Parameter, nil, "value list must not be empty")
		}
		for _, v := range ax.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, domain.Validation(ax.Parameter, v, "must be a finite number")
			}
		}
		if total > maxCells/len(ax.Values) {
			return nil, domain.Validation("axes", nil, fmt.Sprintf("grid exceeds %d cells", maxCells))
		}
		total *= len(ax.Values)
	}

	cells := make([]domain.StudyCell, total)
	for i := range cells {
		p := base
		inputs := make([]domain.StudyValue, len(axes))
		rem := i
		for a := len(axes) - 1; a >= 0; a-- {
			n := len(axes[a].Values)
			v := axes[a].Values[rem%n]
			rem /= n
			inputs[a] = domain.StudyValue{Parameter: axes[a].Parameter, Value: v}
			set(&p, axes[a].Parameter, v)
		}
		cells[i] = domain.StudyCell{Index: i, Inputs: inputs, Parameters: p}
	}
	return cells, nil
}

// Runner evaluates studies.
type Runner struct {
	eval Evaluator
	cfg  Config
}

// NewRunner returns a Runner that evaluates cells with eval.
func NewRunner(eval Evaluator, cfg Config) *Runner {
	return &Runner{eval: eval, cfg: cfg}
}

// Plan enumerates the cells Run would evaluate, applying the runner's cell
// limit, without evaluating them.
func (r *Runner) Plan(base domain.ImpactParameters, axes []domain.StudyAxis) ([]domain.StudyCell, error) {
	return Combinations(base, axes, r.cfg.MaxCells)
}

// ProgressFunc is told how many cells have finished. Calls are serialized.
type ProgressFunc func(completed, total int)

type runOptions struct {
	progress ProgressFunc
}

// RunOption customizes a single Run.
type RunOption func(*runOptions)

// WithProgress reports progress after every finished cell.
func WithProgress(fn ProgressFunc) RunOption {
	return func(o *runOptions) { o.progress = fn }
}

// Run evaluates every combination of axes applied to base. A cell whose
// parameters fail validation carries its error and does not fail the study.
// Cancelling ctx aborts the run.
func (r *Runner) Run(ctx context.Context, base domain.ImpactParameters, axes []domain.StudyAxis, opts ...RunOption) (domain.StudyResult, error) {
	var ro runOptions
	for _, o := range opts {
		o(&ro)
	}
	start := time.Now()
	cells, err := Combinations(base, axes, r.cfg.MaxCells)
	if err != nil {
		return domain.StudyResult{}, fmt.Errorf("study: run: %w", err)
	}

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i := range cells {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := &cells[i]
			fx, err := r.eval.ComputeEffects(c.Parameters)
			if err != nil {
				c.Error = err.Error()
			} else {
				c.Effects = &fx
			}
			if ro.progress != nil {
				mu.Lock()
				done++
				ro.progress(done, len(cells))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.StudyResult{}, fmt.Errorf("study: run: %w", err)
	}

	return domain.StudyResult{
		Base:       base,
		Axes:       axes,
		Cells:      cells,
		Summary:    Summarize(cells),
		CreatedAt:  start.UTC(),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// Summarize aggregates the successful cells.
func Summarize(cells []domain.StudyCell) domain.StudySummary {
	var energy, crater, magnitude, blast []float64
	var s domain.StudySummary
	for _, c := range cells {
		if c.Effects == nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		energy = append(energy, c.Effects.KineticEnergyMt)
		crater = append(crater, c.Effects.CraterDiameterM)
		magnitude = append(magnitude, c.Effects.SeismicMagnitude)
		blast = append(blast, c.Effects.AirBlastRadiusKm)
	}
	if s.Succeeded == 0 {
		return s
	}
	s.EnergyMt = span(energy)
	s.CraterDiameterM = span(crater)
	s.SeismicMagnitude = span(magnitude)
	s.AirBlastRadiusKm = span(blast)
	return s
}

func span(v []float64) domain.Range {
	return domain.Range{Min: floats.Min(v), Max: floats.Max(v)}
}
