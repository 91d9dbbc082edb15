package domain

// ElevationSample is one coastal sample around an impact point.
type ElevationSample struct {
	BearingDeg float64 `json:"bearing_deg"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	ElevationM float64 `json:"elevation_m"`
	Water      bool    `json:"water"`
	Failed     bool    `json:"failed,omitempty"`
}

// TsunamiAssessment classifies the tsunami risk of one impact.
type TsunamiAssessment struct {
	IsWaterImpact    bool              `json:"is_water_impact"`
	SizeCategory     SizeCategory      `json:"size_category"`
	RiskLevel        RiskLevel         `json:"risk_level"`
	RiskScore        int               `json:"risk_score"`
	MaxWaveHeightM   float64           `json:"max_wave_height_estimate_m"`
	WaterToLandRatio float64           `json:"water_to_land_ratio"`
	AffectedRegions  []string          `json:"affected_regions"`
	ImpactElevation  Sourced[float64]  `json:"impact_elevation_m"`
	WaterDepthM      float64           `json:"water_depth_m"`
	SearchRadiusKm   float64           `json:"search_radius_km"`
	Samples          []ElevationSample `json:"samples,omitempty"`
	DataQuality      DataQuality       `json:"data_quality"`
	Warnings         []string          `json:"warnings"`
}

// TsunamiQuickCheck is a single-lookup screening result.
type TsunamiQuickCheck struct {
	IsWaterImpact   bool             `json:"is_water_impact"`
	Elevation       Sourced[float64] `json:"elevation_m"`
	SizeCategory    SizeCategory     `json:"size_category"`
	RiskLevel       RiskLevel        `json:"risk_category"`
	QuickAssessment string           `json:"quick_assessment"`
	DiameterM       float64          `json:"diameter_m"`
	Location        Location         `json:"location"`
}

// RiskLevelInfo documents one tier for display.
type RiskLevelInfo struct {
	Level             RiskLevel `json:"level"`
	Description       string    `json:"description"`
	Characteristics   string    `json:"characteristics"`
	RecommendedAction string    `json:"recommended_action"`
}
