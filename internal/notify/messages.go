package notify

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// TsunamiAlert formats the alert for a report with elevated tsunami risk.
// ok is false when the report carries no tsunami assessment.
func TsunamiAlert(r domain.Report) (a Alert, ok bool) {
	ts := r.TsunamiAssessment
	if ts == nil {
		return Alert{}, false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Report %s\n", r.ID)
	if r.ScenarioID != "" {
		fmt.Fprintf(&b, "Scenario: %s\n", r.ScenarioID)
	}
	fmt.Fprintf(&b, "Impact at %.3f, %.3f: %.0f m at %.1f km/s (%.3g Mt)\n",
		r.Location.Lat, r.Location.Lon,
		r.ImpactParameters.DiameterM, r.ImpactParameters.VelocityKmS,
		r.ImpactEffects.KineticEnergyMt)
	fmt.Fprintf(&b, "Max wave estimate: %.1f m", ts.MaxWaveHeightM)
	if len(ts.AffectedRegions) > 0 {
		fmt.Fprintf(&b, "\nRegions: %s", strings.Join(ts.AffectedRegions, ", "))
	}
	return Alert{
		Event:    EventTsunamiRisk,
		Title:    fmt.Sprintf("Tsunami risk %s", strings.ToUpper(ts.RiskLevel.String())),
		Body:     b.String(),
		Severity: ts.RiskLevel,
	}, true
}

// StudyCompleted formats the completion notice of a parameter study.
func StudyCompleted(s domain.StudyResult) Alert {
	message := fmt.Sprintf("Study %s: %d cells (%d failed) in %d ms\nEnergy %.3g to %.3g Mt",
		s.ID, len(s.Cells), s.Summary.Failed, s.DurationMs,
		s.Summary.EnergyMt.Min, s.Summary.EnergyMt.Max)
	if s.ArchivePath != "" {
		message += "\nArchive: " + s.ArchivePath
	}
	return Alert{Event: EventStudyCompleted, Title: "Parameter study completed", Body: message}
}

// BatchCompleted formats the summary of a batch run over the catalog. A batch
// with failures is raised to moderate severity.
func BatchCompleted(batch string, reports, failed int, archivePath string) Alert {
	a := Alert{
		Event: EventBatchCompleted,
		Title: "Scenario batch completed",
		Body:  fmt.Sprintf("Batch %s: %d reports, %d failed", batch, reports, failed),
	}
	if failed > 0 {
		a.Severity = domain.RiskModerate
	}
	if archivePath != "" {
		a.Body += "\nArchive: " + archivePath
	}
	return a
}
