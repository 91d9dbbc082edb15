// Package physics converts impactor parameters into energy, crater, seismic,
// blast and thermal effects. Every scaling constant is carried in Constants so
// callers and tests can override them.
package physics

import (
	"fmt"
	"strings"
)

// Constants are the scaling relationships of the effects model.
type Constants struct {
	JoulesPerMegaton float64 `toml:"joules_per_megaton"`
	TargetDensity    float64 `toml:"target_density_kg_m3"`
	Gravity          float64 `toml:"gravity_m_s2"`

	CraterCoefficient     float64 `toml:"crater_coefficient"`
	CraterEnergyExponent  float64 `toml:"crater_energy_exponent"`
	CraterDensityExponent float64 `toml:"crater_density_exponent"`
	CraterAngleExponent   float64 `toml:"crater_angle_exponent"`
	DepthRatio            float64 `toml:"depth_ratio"`
	RimRatio              float64 `toml:"rim_ratio"`

	MagnitudeSlope  float64 `toml:"magnitude_slope"`
	MagnitudeOffset float64 `toml:"magnitude_offset"`
	MinMagnitude    float64 `toml:"min_magnitude"`
	MaxMagnitude    float64 `toml:"max_magnitude"`
	DamageMagnitude float64 `toml:"damage_magnitude"`

	// Blast ring radii are k * Y^BlastExponent with Y in kilotons and the
	// result in km.
	SevereBlastK    float64 `toml:"severe_blast_k"`
	HeavyBlastK     float64 `toml:"heavy_blast_k"`
	LightBlastK     float64 `toml:"light_blast_k"`
	BlastExponent   float64 `toml:"blast_exponent"`
	ThermalK        float64 `toml:"thermal_k"`
	ThermalExponent float64 `toml:"thermal_exponent"`
}

// DefaultConstants returns the reference model.
func DefaultConstants() Constants {
	return Constants{
		JoulesPerMegaton: 4.184e15,
		TargetDensity:    2670,
		Gravity:          9.81,

		CraterCoefficient:     1.88,
		CraterEnergyExponent:  0.22,
		CraterDensityExponent: 0.11,
		CraterAngleExponent:   0.44,
		DepthRatio:            0.2,
		RimRatio:              0.07,

		MagnitudeSlope:  2.0 / 3.0,
		MagnitudeOffset: 3.2,
		MinMagnitude:    0,
		MaxMagnitude:    12,
		DamageMagnitude: 5.0,

		SevereBlastK:    0.3,
		HeavyBlastK:     0.8,
		LightBlastK:     2.2,
		BlastExponent:   1.0 / 3.0,
		ThermalK:        1.9,
		ThermalExponent: 1.0 / 3.0,
	}
}

// Validate reports every non-physical constant at once.
func (c Constants) Validate() error {
	var errs []string
	positive := []struct {
		name string
		v    float64
	}{
		{"joules_per_megaton", c.JoulesPerMegaton},
		{"target_density_kg_m3", c.TargetDensity},
		{"gravity_m_s2", c.Gravity},
		{"crater_coefficient", c.CraterCoefficient},
		{"crater_energy_exponent", c.CraterEnergyExponent},
		{"depth_ratio", c.DepthRatio},
		{"magnitude_slope", c.MagnitudeSlope},
		{"severe_blast_k", c.SevereBlastK},
		{"heavy_blast_k", c.HeavyBlastK},
		{"light_blast_k", c.LightBlastK},
		{"blast_exponent", c.BlastExponent},
		{"thermal_k", c.ThermalK},
		{"thermal_exponent", c.ThermalExponent},
	}
	for _, p := range positive {
		if !(p.v > 0) {
			errs = append(errs, fmt.Sprintf("%s must be > 0, got %v", p.name, p.v))
		}
	}
	if c.CraterAngleExponent < 0 {
		errs = append(errs, "crater_angle_exponent must be >= 0")
	}
	if c.MaxMagnitude <= c.MinMagnitude {
		errs = append(errs, "max_magnitude must exceed min_magnitude")
	}
	if !(c.SevereBlastK < c.HeavyBlastK && c.HeavyBlastK < c.LightBlastK) {
		errs = append(errs, "blast constants must satisfy severe < heavy < light")
	}
	if len(errs) > 0 {
		return fmt.Errorf("physics: %s", strings.Join(errs, "; "))
	}
	return nil
}
