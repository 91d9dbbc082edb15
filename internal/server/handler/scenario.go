package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/service"
)

// ScenarioCatalog is the read side of the preset catalog.
type ScenarioCatalog interface {
	Get(id string) (domain.ScenarioDefinition, error)
	List() []domain.ScenarioDefinition
	ByCategory(category string) []domain.ScenarioDefinition
	Historical() []domain.ScenarioDefinition
	Search(query string) []domain.ScenarioDefinition
	Categories() map[string][]string
}

// ScenarioRunner runs and compares presets.
type ScenarioRunner interface {
	RunScenario(ctx context.Context, id string, at *domain.Location) (domain.Report, error)
	CompareScenarios(ctx context.Context, ids []string) (service.Comparison, error)
}

// ScenarioHandler serves the scenario catalog.
type ScenarioHandler struct {
	catalog ScenarioCatalog
	runner  ScenarioRunner
	logger  *slog.Logger
}

// NewScenarioHandler creates a ScenarioHandler.
func NewScenarioHandler(catalog ScenarioCatalog, runner ScenarioRunner, logger *slog.Logger) *ScenarioHandler {
	return &ScenarioHandler{catalog: catalog, runner: runner, logger: logHandler(logger, "scenario")}
}

type scenarioList struct {
	Scenarios []domain.ScenarioDefinition `json:"scenarios"`
	Count     int                         `json:"count"`
}

// ListScenarios lists presets, optionally filtered. Filters apply in order
// q, then category, then historical.
// GET /api/scenarios?category=&historical=true&q=
func (h *ScenarioHandler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list := h.catalog.List()
	if s := q.Get("q"); s != "" {
		list = h.catalog.Search(s)
	}
	if c := q.Get("category"); c != "" {
		list = intersect(list, h.catalog.ByCategory(c))
	}
	if v := q.Get("historical"); v != "" {
		want, err := strconv.ParseBool(v)
		if err != nil {
			writeDomainError(w, r, h.logger, "list scenarios", domain.Validation("historical", v, "must be a boolean"))
			return
		}
		kept := list[:0:0]
		for _, d := range list {
			if d.Historical == want {
				kept = append(kept, d)
			}
		}
		list = kept
	}
	writeJSON(w, http.StatusOK, scenarioList{Scenarios: list, Count: len(list)})
}

func intersect(a, b []domain.ScenarioDefinition) []domain.ScenarioDefinition {
	keep := make(map[string]bool, len(b))
	for _, d := range b {
		keep[d.ID] = true
	}
	out := make([]domain.ScenarioDefinition, 0, len(a))
	for _, d := range a {
		if keep[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// Categories lists scenario ids by category.
// GET /api/scenarios/categories
func (h *ScenarioHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Categories())
}

// GetScenario returns one preset.
// GET /api/scenarios/{id}
func (h *ScenarioHandler) GetScenario(w http.ResponseWriter, r *http.Request) {
	def, err := h.catalog.Get(pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.logger, "get scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// runScenarioRequest optionally moves the preset to other coordinates.
type runScenarioRequest struct {
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
	Name string   `json:"name"`
}

// RunScenario analyzes a preset. The body is optional.
// POST /api/scenarios/{id}/run
func (h *ScenarioHandler) RunScenario(w http.ResponseWriter, r *http.Request) {
	var at *domain.Location
	if r.ContentLength != 0 {
		var req runScenarioRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeDomainError(w, r, h.logger, "run scenario", err)
			return
		}
		if (req.Lat == nil) != (req.Lon == nil) {
			writeDomainError(w, r, h.logger, "run scenario", domain.Validation("location", nil, "lat and lon must be given together"))
			return
		}
		if req.Lat != nil {
			at = &domain.Location{Lat: *req.Lat, Lon: *req.Lon, Name: req.Name}
		}
	}
	report, err := h.runner.RunScenario(r.Context(), pathParam(r, "id"), at)
	if err != nil {
		writeDomainError(w, r, h.logger, "run scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type compareRequest struct {
	ScenarioIDs []string `json:"scenario_ids"`
}

// Compare lists the headline effects of several presets by ascending energy.
// POST /api/scenarios/compare
func (h *ScenarioHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, h.logger, "compare scenarios", err)
		return
	}
	cmp, err := h.runner.CompareScenarios(r.Context(), req.ScenarioIDs)
	if err != nil {
		writeDomainError(w, r, h.logger, "compare scenarios", err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}
