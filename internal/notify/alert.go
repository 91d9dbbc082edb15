package notify

import "github.com/alanyoungcy/impactsim/internal/domain"

// Event types emitted by the services.
const (
	EventTsunamiRisk    = "tsunami_risk"
	EventStudyCompleted = "study_completed"
	EventBatchCompleted = "batch_completed"
)

// Alert is one operator notification. Severity drives the colour or badge a
// channel renders; informational alerts use domain.RiskMinimal.
type Alert struct {
	Event    string
	Title    string
	Body     string
	Severity domain.RiskLevel
}
