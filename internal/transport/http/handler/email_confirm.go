package handler

import (
	"net/http"

	"github.com/diaspora-journey-api/internal/application/auth"
	"github.com/diaspora-journey-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// EmailConfirmHandler handles email confirmation flow endpoints.
type EmailConfirmHandler struct {
	svc auth.Service
}

func NewEmailConfirmHandler(svc auth.Service) *EmailConfirmHandler {
	return &EmailConfirmHandler{svc: svc}
}

func (h *EmailConfirmHandler) Action(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	switch chi.URLParam(r, "action") {
	case "request":
		if err := h.svc.RequestEmailConfirmation(r.Context(), claims.UserID); err != nil {
			httpError(w, r, err)
			return
		}
		writeMessage(w, http.StatusAccepted, "confirmation email sent")
	case "validate":
		var req auth.ValidateEmailRequest
		if !decode(w, r, &req) {
			return
		}
		if err := h.svc.ValidateEmailToken(r.Context(), claims.UserID, req.Token, requestMeta(r)); err != nil {
			httpError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "email confirmed")
	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}
