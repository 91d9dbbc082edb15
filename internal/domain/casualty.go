package domain

// DensityReading is one population density lookup.
type DensityReading struct {
	PerKm2 float64 `json:"per_km2"`
	// Regional is true when the source matched region-specific data rather
	// than a generic background value.
	Regional bool   `json:"regional"`
	Region   string `json:"region,omitempty"`
}

// CasualtyTier is one exclusive annulus of the casualty model.
type CasualtyTier struct {
	Name          string  `json:"name"`
	InnerRadiusKm float64 `json:"inner_radius_km"`
	OuterRadiusKm float64 `json:"outer_radius_km"`
	AreaKm2       float64 `json:"area_km2"`
	DensityPerKm2 float64 `json:"density_per_km2"`
	Population    float64 `json:"population"`
	FatalityRate  float64 `json:"fatality_rate"`
	InjuryRate    float64 `json:"injury_rate"`
}

// CasualtyEstimate is the output of the casualty model.
type CasualtyEstimate struct {
	EstimatedDeaths    int64                   `json:"estimated_deaths"`
	EstimatedInjuries  int64                   `json:"estimated_injuries"`
	PopulationAffected int64                   `json:"population_affected"`
	ConfidenceLevel    ConfidenceLevel         `json:"confidence_level"`
	Density            Sourced[DensityReading] `json:"population_density"`
	Tiers              []CasualtyTier          `json:"tiers"`
	FailedLookups      int                     `json:"failed_lookups"`
}
