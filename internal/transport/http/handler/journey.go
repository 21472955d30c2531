package handler

import (
	"net/http"

	"github.com/diaspora-journey-api/internal/application/journey"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// JourneyHandler serves the build-journey tracker.
type JourneyHandler struct {
	svc journey.Service
}

func NewJourneyHandler(svc journey.Service) *JourneyHandler { return &JourneyHandler{svc: svc} }

func (h *JourneyHandler) ListStages(w http.ResponseWriter, r *http.Request) {
	q := parseStageQuery(r)
	if !check(w, r, &q) {
		return
	}
	stages, err := h.svc.ListStages(r.Context(), domain.StageFilter{Category: q.Category, IncludePremium: q.IncludePremium})
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stages, ListMeta{Count: len(stages)})
}

func (h *JourneyHandler) GetStage(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetStage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st, nil)
}

func (h *JourneyHandler) Graph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph(r.Context(), queryBool(r, "include_optional"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, g, nil)
}

func (h *JourneyHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rows, err := h.svc.ListProgress(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rows, ListMeta{Count: len(rows)})
}

func (h *JourneyHandler) UpsertProgress(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in domain.ProgressInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.svc.UpsertProgress(r.Context(), claims.UserID, chi.URLParam(r, "stageID"), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, p, nil)
}

func (h *JourneyHandler) Summary(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sum, err := h.svc.Summary(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sum, nil)
}

func (h *JourneyHandler) CreateStage(w http.ResponseWriter, r *http.Request) {
	var in domain.StageInput
	if !decode(w, r, &in) {
		return
	}
	st, err := h.svc.CreateStage(r.Context(), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, st, nil)
}

func (h *JourneyHandler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	var in domain.StageInput
	if !decode(w, r, &in) {
		return
	}
	st, err := h.svc.UpdateStage(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st, nil)
}

func (h *JourneyHandler) AddDependency(w http.ResponseWriter, r *http.Request) {
	var in domain.DependencyInput
	if !decode(w, r, &in) {
		return
	}
	d, err := h.svc.AddDependency(r.Context(), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, d, nil)
}

func (h *JourneyHandler) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveDependency(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
