package handler

import (
	"net/http"

	"github.com/diaspora-journey-api/internal/application/verification"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// AdminVerificationHandler serves the review dashboard.
type AdminVerificationHandler struct {
	svc verification.Service
}

func NewAdminVerificationHandler(svc verification.Service) *AdminVerificationHandler {
	return &AdminVerificationHandler{svc: svc}
}

type bulkSummary struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

func (h *AdminVerificationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseVerificationQuery(r)
	if !check(w, r, &q) {
		return
	}
	list, next, err := h.svc.AdminList(r.Context(), q.filter())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list, PageMeta{Limit: q.effectiveLimit(), Count: len(list), NextCursor: next})
}

func (h *AdminVerificationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats, nil)
}

func (h *AdminVerificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	vr, err := h.svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "id"), true)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, vr, nil)
}

func (h *AdminVerificationHandler) Audit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.AuditTrail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries, ListMeta{Count: len(entries)})
}

func (h *AdminVerificationHandler) Review(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.ReviewRequest
	if !decode(w, r, &req) {
		return
	}
	vr, err := h.svc.Review(r.Context(), claims.UserID, chi.URLParam(r, "id"), req, requestMeta(r))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, vr, nil)
}

// BulkReview always answers 200; per-id failures are reported in the body.
func (h *AdminVerificationHandler) BulkReview(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.BulkReviewRequest
	if !decode(w, r, &req) {
		return
	}
	results := h.svc.BulkReview(r.Context(), claims.UserID, req, requestMeta(r))
	sum := bulkSummary{Requested: len(results)}
	for _, res := range results {
		if res.OK {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
	}
	writeData(w, http.StatusOK, results, sum)
}

func (h *AdminVerificationHandler) RevokeBadge(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.RevokeBadgeRequest
	if !decode(w, r, &req) {
		return
	}
	badge, err := h.svc.RevokeBadge(r.Context(), claims.UserID, chi.URLParam(r, "id"), req.Reason, requestMeta(r))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, badge, nil)
}
