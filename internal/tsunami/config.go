package tsunami

import (
	"errors"
	"fmt"
	"slices"
)

// Config holds the sampling geometry and every threshold of the risk table.
type Config struct {
	SampleCount        int     `toml:"sample_count"`
	SearchRadiusKm     float64 `toml:"search_radius_km"`
	Concurrency        int     `toml:"concurrency"`
	FallbackElevationM float64 `toml:"fallback_elevation_m"`

	// SizeThresholdsM split diameters into the five size categories.
	SizeThresholdsM []float64 `toml:"size_thresholds_m"`
	// ScoreBandsM award one size point per band a diameter exceeds.
	ScoreBandsM []float64 `toml:"score_bands_m"`

	WaveBandsM        []float64 `toml:"wave_bands_m"`
	WaveEnergyFactors []float64 `toml:"wave_energy_factors"`
	WaveDepthRefM     float64   `toml:"wave_depth_ref_m"`
	WaveMinDepthM     float64   `toml:"wave_min_depth_m"`
	WaveScale         float64   `toml:"wave_scale"`
	WaveCapM          float64   `toml:"wave_cap_m"`

	DeepWaterM  float64 `toml:"deep_water_m"`
	ShelfWaterM float64 `toml:"shelf_water_m"`
	RatioHigh   float64 `toml:"ratio_high"`
	RatioMid    float64 `toml:"ratio_mid"`

	// TierCutoffs are the minimum scores for low, moderate, high and extreme.
	TierCutoffs []int `toml:"tier_cutoffs"`
	MaxRegions  int   `toml:"max_regions"`
}

// DefaultConfig returns the reference decision table.
func DefaultConfig() Config {
	return Config{
		SampleCount:        16,
		SearchRadiusKm:     200,
		Concurrency:        4,
		FallbackElevationM: 100,

		SizeThresholdsM: []float64{50, 200, 500, 1000},
		ScoreBandsM:     []float64{100, 200, 500, 1000},

		WaveBandsM:        []float64{100, 500, 1000},
		WaveEnergyFactors: []float64{1, 5, 20, 50},
		WaveDepthRefM:     100,
		WaveMinDepthM:     10,
		WaveScale:         0.1,
		WaveCapM:          100,

		DeepWaterM:  1000,
		ShelfWaterM: 100,
		RatioHigh:   0.8,
		RatioMid:    0.5,

		TierCutoffs: []int{3, 5, 7, 9},
		MaxRegions:  5,
	}
}

// Validate reports every inconsistent setting.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("tsunami: "+format, args...))
	}
	if c.SampleCount < 1 {
		add("sample_count must be >= 1")
	}
	if !(c.SearchRadiusKm > 0) {
		add("search_radius_km must be > 0")
	}
	if c.Concurrency < 1 {
		add("concurrency must be >= 1")
	}
	if len(c.SizeThresholdsM) != 4 || !slices.IsSorted(c.SizeThresholdsM) {
		add("size_thresholds_m must be 4 ascending values")
	}
	if !slices.IsSorted(c.ScoreBandsM) {
		add("score_bands_m must be ascending")
	}
	if len(c.WaveEnergyFactors) != len(c.WaveBandsM)+1 || !slices.IsSorted(c.WaveBandsM) {
		add("wave_energy_factors needs one more entry than ascending wave_bands_m")
	}
	if !(c.WaveMinDepthM > 0) || !(c.WaveCapM > 0) {
		add("wave_min_depth_m and wave_cap_m must be > 0")
	}
	if c.ShelfWaterM >= c.DeepWaterM {
		add("shelf_water_m must be shallower than deep_water_m")
	}
	if c.RatioMid >= c.RatioHigh {
		add("ratio_mid must be below ratio_high")
	}
	if len(c.TierCutoffs) != 4 || !slices.IsSorted(c.TierCutoffs) {
		add("tier_cutoffs must be 4 ascending scores")
	}
	return errors.Join(errs...)
}
