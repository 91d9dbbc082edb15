package physics

import (
	"fmt"
	"math"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// Seismic attenuation of effective magnitude with distance r (km).
const (
	nearFieldKm   = 60.0
	midFieldKm    = 700.0
	nearSlope     = 0.0238
	midSlope      = 0.0048
	midOffset     = 1.1644
	farSlope      = 1.66
	farOffset     = 6.399
	earthRadiusKm = 6371.0
	metersPerKm   = 1000.0
	kilotonsPerMt = 1000.0
)

// Engine evaluates the effects model. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	c Constants
}

// NewEngine returns an Engine using c.
func NewEngine(c Constants) *Engine {
	return &Engine{c: c}
}

// Constants returns the scaling constants in use.
func (e *Engine) Constants() Constants {
	return e.c
}

// ComputeEffects derives ImpactEffects from p. Identical inputs always yield
// identical outputs.
func (e *Engine) ComputeEffects(p domain.ImpactParameters) (domain.ImpactEffects, error) {
	if err := p.Validate(); err != nil {
		return domain.ImpactEffects{}, fmt.Errorf("physics: compute effects: %w", err)
	}
	c := e.c

	radius := p.DiameterM / 2
	mass := 4.0 / 3.0 * math.Pi * radius * radius * radius * p.DensityKgM3
	v := p.VelocityKmS * metersPerKm
	energyJ := 0.5 * mass * v * v
	if math.IsInf(energyJ, 0) || math.IsNaN(energyJ) {
		return domain.ImpactEffects{}, fmt.Errorf("physics: compute effects: %w",
			domain.Validation("diameter_m", p.DiameterM, "kinetic energy overflows"))
	}
	mt := energyJ / c.JoulesPerMegaton
	kt := mt * kilotonsPerMt

	crater := e.CraterDiameter(energyJ, p.DensityKgM3, p.AngleDeg)
	depth := crater * c.DepthRatio
	magnitude := e.Magnitude(energyJ)

	zones := domain.BlastZones{
		SevereRadiusKm: c.SevereBlastK * math.Pow(kt, c.BlastExponent),
		HeavyRadiusKm:  c.HeavyBlastK * math.Pow(kt, c.BlastExponent),
		LightRadiusKm:  c.LightBlastK * math.Pow(kt, c.BlastExponent),
	}

	return domain.ImpactEffects{
		MassKg:           mass,
		KineticEnergyJ:   energyJ,
		KineticEnergyMt:  mt,
		CraterDiameterM:  crater,
		CraterDepthM:     depth,
		CraterRimHeightM: crater * c.RimRatio,
		CraterVolumeM3:   math.Pi * (crater / 2) * (crater / 2) * depth / 3,
		SeismicMagnitude: magnitude,
		SeismicRadiusKm:  e.SeismicRadiusKm(magnitude),
		AirBlastRadiusKm: zones.HeavyRadiusKm,
		ThermalRadiusKm:  c.ThermalK * math.Pow(kt, c.ThermalExponent),
		BlastZones:       zones,
	}, nil
}

// CraterDiameter applies the power-law scaling in meters. The angle term
// shrinks oblique craters by sin(angle)^CraterAngleExponent; the default
// 0.44 is the vertical energy component sin²(angle) taken through the 0.22
// energy exponent.
func (e *Engine) CraterDiameter(energyJ, impactorDensity, angleDeg float64) float64 {
	c := e.c
	scaled := math.Pow(energyJ/(c.TargetDensity*c.Gravity), c.CraterEnergyExponent)
	densityRatio := math.Pow(impactorDensity/c.TargetDensity, c.CraterDensityExponent)
	angle := math.Pow(math.Sin(angleDeg*math.Pi/180), c.CraterAngleExponent)
	return c.CraterCoefficient * scaled * densityRatio * angle
}

// Magnitude converts energy in joules to a moment magnitude clipped to
// [MinMagnitude, MaxMagnitude].
func (e *Engine) Magnitude(energyJ float64) float64 {
	if energyJ <= 0 {
		return e.c.MinMagnitude
	}
	m := e.c.MagnitudeSlope*math.Log10(energyJ) - e.c.MagnitudeOffset
	return math.Max(e.c.MinMagnitude, math.Min(e.c.MaxMagnitude, m))
}

// SeismicRadiusKm returns the distance at which the attenuated magnitude
// falls to DamageMagnitude. The result is non-decreasing in magnitude.
func (e *Engine) SeismicRadiusKm(magnitude float64) float64 {
	drop := magnitude - e.c.DamageMagnitude
	if drop <= 0 {
		return 0
	}
	if r := drop / nearSlope; r < nearFieldKm {
		return r
	}
	if r := (drop - midOffset) / midSlope; r < midFieldKm {
		return math.Max(r, nearFieldKm)
	}
	r := earthRadiusKm * math.Pow(10, (drop-farOffset)/farSlope)
	return math.Max(r, midFieldKm)
}
