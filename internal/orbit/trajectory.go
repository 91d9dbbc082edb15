package orbit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// Trajectory samples the orbit at points evenly spaced epochs over days,
// starting at start, and reports the closest Earth approach among them.
func (p *Propagator) Trajectory(ctx context.Context, el domain.OrbitalElements, start time.Time, days float64, points int) (domain.Trajectory, error) {
	if math.IsNaN(days) || days <= 0 {
		return domain.Trajectory{}, domain.Validation("days", days, "must be > 0")
	}
	if points < 1 || points > p.cfg.MaxPoints {
		return domain.Trajectory{}, domain.Validation("points", points,
			fmt.Sprintf("must be in [1, %d]", p.cfg.MaxPoints))
	}

	step := time.Duration(days / float64(points) * secondsPerDay * float64(time.Second))
	out := domain.Trajectory{Points: make([]domain.TrajectoryPoint, 0, points)}
	best := math.Inf(1)
	var bestAst, bestEarth domain.StateVector
	var bestAt time.Time

	for i := 0; i < points; i++ {
		if err := ctx.Err(); err != nil {
			return domain.Trajectory{}, err
		}
		at := start.Add(time.Duration(i) * step)
		ast, err := p.Propagate(el, at)
		if err != nil {
			return domain.Trajectory{}, fmt.Errorf("orbit: trajectory point %d: %w", i, err)
		}
		earth := EarthState(at)
		dist := ast.Position.Sub(earth.Position).Norm()
		out.Points = append(out.Points, domain.TrajectoryPoint{
			Time:            at,
			Position:        ast.Position,
			EarthDistanceKm: dist,
		})
		if dist < best {
			best, bestAst, bestEarth, bestAt = dist, ast, earth, at
		}
	}

	rel := bestAst.Velocity.Sub(bestEarth.Velocity).Norm()
	out.Approach = domain.CloseApproach{
		Time:              bestAt,
		DistanceKm:        best,
		RelativeSpeedKmS:  rel,
		ImpactVelocityKmS: ImpactVelocity(rel),
		PotentialImpact:   best < p.cfg.CloseApproachKm,
		Site:              ImpactSite(bestAst, bestEarth, bestAt),
	}
	return out, nil
}

// ImpactVelocity adds Earth's escape velocity to an approach speed.
func ImpactVelocity(relativeKmS float64) float64 {
	return math.Sqrt(relativeKmS*relativeKmS + EscapeVelocityKmS*EscapeVelocityKmS)
}

// AssessOrbit classifies the Earth-crossing geometry of el and the hazard of a
// body of diameterKm.
func AssessOrbit(el domain.OrbitalElements, diameterKm float64) (domain.OrbitRisk, error) {
	if err := el.Validate(); err != nil {
		return domain.OrbitRisk{}, fmt.Errorf("orbit: assess: %w", err)
	}
	if math.IsNaN(diameterKm) || diameterKm <= 0 {
		return domain.OrbitRisk{}, domain.Validation("diameter_km", diameterKm, "must be > 0")
	}
	q := el.SemiMajorAxisAU * (1 - el.Eccentricity)
	apo := el.SemiMajorAxisAU * (1 + el.Eccentricity)

	var minDist float64
	switch {
	case q > 1:
		minDist = q - 1
	case apo < 1:
		minDist = 1 - apo
	}

	label, effects := hazardOf(diameterKm)
	return domain.OrbitRisk{
		PerihelionAU:     q,
		AphelionAU:       apo,
		EarthCrossing:    q < 1 && apo > 1,
		MinimumDistAU:    minDist,
		PeriodYears:      PeriodDays(el.SemiMajorAxisAU) / daysPerYear,
		DiameterKm:       diameterKm,
		RiskLabel:        label,
		PotentialEffects: effects,
	}, nil
}

func hazardOf(diameterKm float64) (string, string) {
	switch {
	case diameterKm >= 10:
		return "Global Catastrophe", "Mass extinction event, global winter"
	case diameterKm >= 1:
		return "Regional Devastation", "Continental damage, climate effects"
	case diameterKm >= 0.1:
		return "Local Catastrophe", "City-scale destruction"
	case diameterKm >= 0.01:
		return "Local Damage", "Building-scale damage"
	default:
		return "Minimal Risk", "Likely burns up in atmosphere"
	}
}
