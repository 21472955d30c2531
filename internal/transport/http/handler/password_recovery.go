package handler

import (
	"net/http"

	"github.com/diaspora-journey-api/internal/application/auth"
	"github.com/diaspora-journey-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// PasswordRecoveryHandler handles password recovery flow endpoints.
type PasswordRecoveryHandler struct {
	svc auth.Service
}

func NewPasswordRecoveryHandler(svc auth.Service) *PasswordRecoveryHandler {
	return &PasswordRecoveryHandler{svc: svc}
}

func (h *PasswordRecoveryHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "request":
		var req auth.PasswordRecoveryRequest
		if !decode(w, r, &req) {
			return
		}
		if err := h.svc.RequestPasswordRecovery(r.Context(), req, requestMeta(r)); err != nil {
			httpError(w, r, err)
			return
		}
		writeMessage(w, http.StatusAccepted, "if the address is registered, a code has been sent")
	case "validate":
		var req auth.ValidateOTPRequest
		if !decode(w, r, &req) {
			return
		}
		result, err := h.svc.ValidateOTP(r.Context(), req, requestMeta(r))
		if err != nil {
			httpError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, authPayload(result), nil)
	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

func (h *PasswordRecoveryHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req auth.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), claims.UserID, req.NewPassword, requestMeta(r)); err != nil {
		httpError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "password changed")
}
