package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/service"
	"github.com/alanyoungcy/impactsim/internal/study"
)

// StudyService is what the study endpoints need from the service layer.
type StudyService interface {
	Run(ctx context.Context, req service.StudyRequest) (domain.StudyResult, error)
	Submit(ctx context.Context, req service.StudyRequest) (string, error)
	Get(ctx context.Context, id string) (domain.StudyResult, error)
	OpenArchive(ctx context.Context, id string) (*domain.Blob, error)
}

// StudyHandler serves parameter studies.
type StudyHandler struct {
	studies StudyService
	logger  *slog.Logger
}

// NewStudyHandler creates a StudyHandler.
func NewStudyHandler(studies StudyService, logger *slog.Logger) *StudyHandler {
	return &StudyHandler{studies: studies, logger: logHandler(logger, "study")}
}

type studyRequest struct {
	Base impactRequest      `json:"base_parameters"`
	Axes []domain.StudyAxis `json:"axes"`
}

func (q studyRequest) request() (service.StudyRequest, error) {
	base, err := q.Base.params()
	if err != nil {
		return service.StudyRequest{}, err
	}
	axes := make([]domain.StudyAxis, len(q.Axes))
	for i, a := range q.Axes {
		if len(a.Values) == 0 {
			v, err := study.DefaultValues(a.Parameter)
			if err != nil {
				return service.StudyRequest{}, err
			}
			a.Values = v
		}
		axes[i] = a
	}
	return service.StudyRequest{Base: base, Axes: axes}, nil
}

// Run executes a sweep. With ?async=true it returns 202 and the study id,
// and progress is streamed over the websocket study channel.
// POST /api/impact/study
func (h *StudyHandler) Run(w http.ResponseWriter, r *http.Request) {
	var body studyRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeDomainError(w, r, h.logger, "run study", err)
		return
	}
	req, err := body.request()
	if err != nil {
		writeDomainError(w, r, h.logger, "run study", err)
		return
	}

	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	if async {
		id, err := h.studies.Submit(r.Context(), req)
		if err != nil {
			writeDomainError(w, r, h.logger, "submit study", err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"study_id": id})
		return
	}

	res, err := h.studies.Run(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, h.logger, "run study", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Get returns a stored study.
// GET /api/impact/study/{id}
func (h *StudyHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.studies.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.logger, "get study", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Archive streams the archived cells of a study as newline-delimited JSON.
// GET /api/impact/study/{id}/archive
func (h *StudyHandler) Archive(w http.ResponseWriter, r *http.Request) {
	blob, err := h.studies.OpenArchive(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.logger, "open archive", err)
		return
	}
	defer blob.Close()

	hdr := w.Header()
	hdr.Set("Content-Type", "application/x-ndjson")
	if blob.Info.Size > 0 {
		hdr.Set("Content-Length", strconv.FormatInt(blob.Info.Size, 10))
	}
	if !blob.Info.LastModified.IsZero() {
		hdr.Set("Last-Modified", blob.Info.LastModified.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, blob); err != nil {
		h.logger.WarnContext(r.Context(), "archive stream interrupted", slog.String("error", err.Error()))
	}
}

type parameterInfo struct {
	Parameter string    `json:"parameter"`
	Defaults  []float64 `json:"default_values"`
}

// Parameters lists the parameters a study may vary with their default sweeps.
// GET /api/impact/study/parameters
func (h *StudyHandler) Parameters(w http.ResponseWriter, r *http.Request) {
	names := study.Parameters()
	out := make([]parameterInfo, 0, len(names))
	for _, n := range names {
		v, _ := study.DefaultValues(n)
		out = append(out, parameterInfo{Parameter: n, Defaults: v})
	}
	writeJSON(w, http.StatusOK, out)
}
