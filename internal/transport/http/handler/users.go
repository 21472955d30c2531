package handler

import (
	"net/http"

	"github.com/diaspora-journey-api/internal/application/user"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// UserHandler handles user CRUD endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.svc.Register(r.Context(), req, requestMeta(r))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, authPayload(result), nil)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parsePage(r)
	if !check(w, r, &q) {
		return
	}
	users, next, err := h.svc.List(r.Context(), q.Limit, q.Cursor)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, users, PageMeta{Limit: q.effectiveLimit(), Count: len(users), NextCursor: next})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := chi.URLParam(r, "id")
	if claims.UserID != targetID && !isAdmin(claims.Role) {
		writeError(w, http.StatusForbidden, "cannot view another user")
		return
	}
	u, err := h.svc.Get(r.Context(), targetID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u, nil)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := chi.URLParam(r, "id")
	if claims.UserID != targetID && !isAdmin(claims.Role) {
		writeError(w, http.StatusForbidden, "cannot update another user")
		return
	}
	var req domain.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.Update(r.Context(), targetID, req, isAdmin(claims.Role), requestMeta(r))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u, nil)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "id"), requestMeta(r)); err != nil {
		httpError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "user deleted")
}
