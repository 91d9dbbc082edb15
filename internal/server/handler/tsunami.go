package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

const nominalVelocityKmS = 20.0

// TsunamiService is what the tsunami endpoints need.
type TsunamiService interface {
	AssessTsunami(ctx context.Context, p domain.ImpactParameters) (domain.TsunamiAssessment, error)
	QuickTsunami(ctx context.Context, lat, lon, diameterM float64) (domain.TsunamiQuickCheck, error)
	RiskLevels() []domain.RiskLevelInfo
	RiskLevel(level domain.RiskLevel) (domain.RiskLevelInfo, error)
}

// TsunamiHandler serves the tsunami risk endpoints.
type TsunamiHandler struct {
	tsunami TsunamiService
	logger  *slog.Logger
}

// NewTsunamiHandler creates a TsunamiHandler.
func NewTsunamiHandler(tsunami TsunamiService, logger *slog.Logger) *TsunamiHandler {
	return &TsunamiHandler{tsunami: tsunami, logger: logHandler(logger, "tsunami")}
}

// Assess samples the surroundings of an impact and grades the tsunami risk.
// POST /api/tsunami/assess
func (h *TsunamiHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req impactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, h.logger, "assess tsunami", err)
		return
	}
	// Velocity does not affect the tsunami grade.
	if req.VelocityKmS == nil {
		v := nominalVelocityKmS
		req.VelocityKmS = &v
	}
	p, err := req.params()
	if err != nil {
		writeDomainError(w, r, h.logger, "assess tsunami", err)
		return
	}
	a, err := h.tsunami.AssessTsunami(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, h.logger, "assess tsunami", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Quick screens one point with a single elevation lookup.
// GET /api/tsunami/quick?lat=&lon=&diameter_m=
func (h *TsunamiHandler) Quick(w http.ResponseWriter, r *http.Request) {
	var vals [3]float64
	for i, name := range []string{"lat", "lon", "diameter_m"} {
		v, err := queryFloat(r, name)
		if err != nil {
			writeDomainError(w, r, h.logger, "quick tsunami", err)
			return
		}
		vals[i] = v
	}
	q, err := h.tsunami.QuickTsunami(r.Context(), vals[0], vals[1], vals[2])
	if err != nil {
		writeDomainError(w, r, h.logger, "quick tsunami", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Levels documents every risk tier.
// GET /api/tsunami/levels
func (h *TsunamiHandler) Levels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tsunami.RiskLevels())
}

// Level documents one risk tier.
// GET /api/tsunami/levels/{level}
func (h *TsunamiHandler) Level(w http.ResponseWriter, r *http.Request) {
	lvl, err := domain.ParseRiskLevel(pathParam(r, "level"))
	if err != nil {
		writeDomainError(w, r, h.logger, "risk level", err)
		return
	}
	info, err := h.tsunami.RiskLevel(lvl)
	if err != nil {
		writeDomainError(w, r, h.logger, "risk level", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
