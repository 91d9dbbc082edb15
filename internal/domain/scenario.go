package domain

// ScenarioDefinition is a named, read-only preset.
type ScenarioDefinition struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Historical  bool             `json:"historical"`
	Year        int              `json:"year,omitempty"`
	Location    Location         `json:"location"`
	Parameters  ImpactParameters `json:"parameters"`
}
