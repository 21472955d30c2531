package handler

import (
	"net/http"

	"github.com/diaspora-journey-api/internal/application/security"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/transport/http/middleware"
)

// SecurityEventHandler exposes the security event log.
type SecurityEventHandler struct {
	svc security.Service
}

func NewSecurityEventHandler(svc security.Service) *SecurityEventHandler {
	return &SecurityEventHandler{svc: svc}
}

func (h *SecurityEventHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	q := parsePage(r)
	if !check(w, r, &q) {
		return
	}
	events, next, err := h.svc.ListMine(r.Context(), claims.UserID, q.Limit, q.Cursor)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, events, PageMeta{Limit: q.effectiveLimit(), Count: len(events), NextCursor: next})
}

func (h *SecurityEventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseSecurityEventQuery(r)
	if !check(w, r, &q) {
		return
	}
	events, next, err := h.svc.List(r.Context(), domain.SecurityEventFilter{
		Type:   q.Type,
		UserID: q.UserID,
		Limit:  q.Limit,
		Cursor: q.Cursor,
	})
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, events, PageMeta{Limit: q.effectiveLimit(), Count: len(events), NextCursor: next})
}
