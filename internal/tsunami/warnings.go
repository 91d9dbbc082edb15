package tsunami

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

func warningsFor(level domain.RiskLevel, waveM float64, regions []string) []string {
	out := []string{}
	switch level {
	case domain.RiskExtreme, domain.RiskHigh:
		out = append(out,
			"EXTREME TSUNAMI RISK: Immediate evacuation of all coastal areas required",
			fmt.Sprintf("Estimated wave heights up to %.1fm", waveM),
			"Evacuate areas within 10km of coastline to elevations above 30m",
		)
	case domain.RiskModerate:
		out = append(out,
			"MODERATE TSUNAMI RISK: Coastal areas should prepare for evacuation",
			fmt.Sprintf("Estimated wave heights up to %.1fm", waveM),
			"Evacuate low-lying coastal areas to higher ground",
		)
	case domain.RiskLow:
		out = append(out,
			"LOW TSUNAMI RISK: Monitor coastal areas for unusual wave activity",
			"Be prepared to move away from immediate shoreline",
		)
	}
	if len(regions) > 0 {
		out = append(out, "Potentially affected regions: "+strings.Join(regions, ", "))
	}
	return out
}

var levelInfo = map[domain.RiskLevel]domain.RiskLevelInfo{
	domain.RiskMinimal: {
		Level:             domain.RiskMinimal,
		Description:       "Very low tsunami risk",
		Characteristics:   "Small asteroid or land impact",
		RecommendedAction: "Monitor for updates",
	},
	domain.RiskLow: {
		Level:             domain.RiskLow,
		Description:       "Low tsunami risk",
		Characteristics:   "Limited wave generation potential",
		RecommendedAction: "Stay informed, prepare coastal monitoring",
	},
	domain.RiskModerate: {
		Level:             domain.RiskModerate,
		Description:       "Moderate tsunami risk",
		Characteristics:   "Regional tsunami possible",
		RecommendedAction: "Prepare evacuation plans for coastal areas",
	},
	domain.RiskHigh: {
		Level:             domain.RiskHigh,
		Description:       "High tsunami risk",
		Characteristics:   "Large regional tsunami likely",
		RecommendedAction: "Evacuate coastal areas immediately",
	},
	domain.RiskExtreme: {
		Level:             domain.RiskExtreme,
		Description:       "Extreme tsunami risk",
		Characteristics:   "Ocean-wide mega-tsunami possible",
		RecommendedAction: "Mass evacuation of all coastal regions",
	},
}

// LevelInfo describes one risk tier.
func LevelInfo(level domain.RiskLevel) (domain.RiskLevelInfo, error) {
	info, ok := levelInfo[level]
	if !ok {
		return domain.RiskLevelInfo{}, domain.NotFound("risk_level", int(level))
	}
	return info, nil
}

// AllLevelInfo describes every tier in ascending order.
func AllLevelInfo() []domain.RiskLevelInfo {
	out := make([]domain.RiskLevelInfo, 0, len(levelInfo))
	for _, l := range domain.RiskLevels() {
		out = append(out, levelInfo[l])
	}
	return out
}
