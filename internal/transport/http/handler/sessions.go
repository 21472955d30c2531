package handler

import (
	"net/http"

	"github.com/diaspora-journey-api/internal/application/session"
	"github.com/diaspora-journey-api/internal/transport/http/middleware"
)

// SessionHandler handles session endpoints.
type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.svc.Login(r.Context(), req, requestMeta(r))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, authPayload(result), nil)
}

func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req session.RefreshRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.svc.Refresh(r.Context(), req.RefreshToken, requestMeta(r))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, authPayload(result), nil)
}

func (h *SessionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sess, err := h.svc.GetCurrent(r.Context(), claims.SessionID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sess, nil)
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Logout(r.Context(), claims.UserID, claims.SessionID, requestMeta(r)); err != nil {
		httpError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "logged out")
}
