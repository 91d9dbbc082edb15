package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/impactsim/internal/service"
)

// OrbitService is what the orbit endpoints need.
type OrbitService interface {
	DescribeBody(ctx context.Context, designation string) (service.BodySummary, error)
	Trajectory(ctx context.Context, req service.TrajectoryRequest) (service.TrajectoryResult, error)
}

// OrbitHandler serves small-body lookups and trajectories.
type OrbitHandler struct {
	orbits OrbitService
	logger *slog.Logger
}

// NewOrbitHandler creates an OrbitHandler.
func NewOrbitHandler(orbits OrbitService, logger *slog.Logger) *OrbitHandler {
	return &OrbitHandler{orbits: orbits, logger: logHandler(logger, "orbit")}
}

// Body looks up a designation and classifies its orbit.
// GET /api/orbit/{designation}
func (h *OrbitHandler) Body(w http.ResponseWriter, r *http.Request) {
	des := pathParam(r, "designation")
	if des == "" {
		writeError(w, http.StatusBadRequest, "missing designation")
		return
	}
	sum, err := h.orbits.DescribeBody(r.Context(), des)
	if err != nil {
		writeDomainError(w, r, h.logger, "describe body", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Trajectory samples an orbit.
// POST /api/orbit/trajectory
func (h *OrbitHandler) Trajectory(w http.ResponseWriter, r *http.Request) {
	var req service.TrajectoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, h.logger, "trajectory", err)
		return
	}
	res, err := h.orbits.Trajectory(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, h.logger, "trajectory", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
