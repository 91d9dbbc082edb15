package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/service"
)

// ImpactService defines what the impact and report endpoints need from the
// service layer.
type ImpactService interface {
	Analyze(ctx context.Context, p domain.ImpactParameters) (domain.Report, error)
	AnalyzeOrbit(ctx context.Context, req service.OrbitRequest) (domain.Report, error)
	GetReport(ctx context.Context, id string) (domain.Report, error)
	ListReports(ctx context.Context, opts domain.ListOpts) (service.ReportPage, error)
}

// ImpactHandler serves analysis and report endpoints.
type ImpactHandler struct {
	impacts ImpactService
	logger  *slog.Logger
}

// NewImpactHandler creates an ImpactHandler.
func NewImpactHandler(impacts ImpactService, logger *slog.Logger) *ImpactHandler {
	return &ImpactHandler{impacts: impacts, logger: logHandler(logger, "impact")}
}

// impactRequest is the wire form of ImpactParameters. Density and angle
// are optional and default to a stony impactor at 45 degrees.
type impactRequest struct {
	DiameterM   *float64 `json:"diameter_m"`
	VelocityKmS *float64 `json:"velocity_km_s"`
	DensityKgM3 *float64 `json:"density_kg_m3"`
	AngleDeg    *float64 `json:"angle_degrees"`
	ImpactLat   *float64 `json:"impact_lat"`
	ImpactLon   *float64 `json:"impact_lon"`
}

func (q impactRequest) params() (domain.ImpactParameters, error) {
	required := []struct {
		name string
		v    *float64
	}{
		{"diameter_m", q.DiameterM},
		{"velocity_km_s", q.VelocityKmS},
		{"impact_lat", q.ImpactLat},
		{"impact_lon", q.ImpactLon},
	}
	for _, f := range required {
		if f.v == nil {
			return domain.ImpactParameters{}, domain.Validation(f.name, nil, "is required")
		}
	}
	p := domain.ImpactParameters{
		DiameterM:   *q.DiameterM,
		VelocityKmS: *q.VelocityKmS,
		DensityKgM3: domain.DefaultDensityKgM3,
		AngleDeg:    domain.DefaultAngleDeg,
		ImpactLat:   *q.ImpactLat,
		ImpactLon:   *q.ImpactLon,
	}
	if q.DensityKgM3 != nil {
		p.DensityKgM3 = *q.DensityKgM3
	}
	if q.AngleDeg != nil {
		p.AngleDeg = *q.AngleDeg
	}
	return p, p.Validate()
}

// Analyze runs the full analysis for explicit parameters.
// POST /api/impact/analyze
func (h *ImpactHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req impactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, h.logger, "analyze", err)
		return
	}
	p, err := req.params()
	if err != nil {
		writeDomainError(w, r, h.logger, "analyze", err)
		return
	}
	report, err := h.impacts.Analyze(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, h.logger, "analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// AnalyzeOrbit derives an impact from orbital elements or a designation.
// POST /api/impact/orbit
func (h *ImpactHandler) AnalyzeOrbit(w http.ResponseWriter, r *http.Request) {
	var req service.OrbitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, h.logger, "analyze orbit", err)
		return
	}
	report, err := h.impacts.AnalyzeOrbit(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, h.logger, "analyze orbit", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListReports returns stored report summaries, newest first.
// GET /api/reports?limit=50&offset=0&since=&until=
func (h *ImpactHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOpts(r)
	if err != nil {
		writeDomainError(w, r, h.logger, "list reports", err)
		return
	}
	page, err := h.impacts.ListReports(r.Context(), opts)
	if err != nil {
		writeDomainError(w, r, h.logger, "list reports", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetReport returns one stored report.
// GET /api/reports/{id}
func (h *ImpactHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing report id")
		return
	}
	report, err := h.impacts.GetReport(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, "get report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
