package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/diaspora-journey-api/internal/application/session"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/pkg/validate"
	"github.com/diaspora-journey-api/internal/transport/http/middleware"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const maxJSONBody = 1 << 20

// Envelope is the success wrapper: {"data": ..., "meta": ...}.
type Envelope struct {
	Data interface{} `json:"data"`
	Meta interface{} `json:"meta,omitempty"`
}

// ErrorEnvelope is the failure wrapper. Details is set for validation failures.
type ErrorEnvelope struct {
	Error   string                `json:"error"`
	Details []validate.FieldError `json:"details,omitempty"`
}

// PageMeta describes a cursor-paginated list.
type PageMeta struct {
	Limit      int    `json:"limit"`
	Count      int    `json:"count"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// ListMeta describes an unpaginated list.
type ListMeta struct {
	Count int `json:"count"`
}

// AuthPayload is returned by register, login, refresh and OTP sign-in.
type AuthPayload struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Session      *domain.Session `json:"session"`
}

type messagePayload struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data, meta interface{}) {
	writeJSON(w, status, Envelope{Data: data, Meta: meta})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeData(w, status, messagePayload{Message: msg}, nil)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: msg})
}

// httpError maps service errors onto status codes. Unknown errors are logged
// and reported as a bare 500.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	if details := validate.Details(err); details != nil {
		writeJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: "validation failed", Details: details})
		return
	}
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decode reads a JSON body into dst and validates it. On failure the response
// has already been written and decode returns false.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return check(w, r, dst)
}

func check(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := validate.Struct(v); err != nil {
		httpError(w, r, err)
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter. Malformed values
// return -1 so the validator rejects them.
func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

func requestMeta(r *http.Request) domain.RequestMeta {
	return domain.RequestMeta{IP: middleware.ClientIP(r), UserAgent: r.UserAgent()}
}

func authPayload(res *session.LoginResult) AuthPayload {
	return AuthPayload{AccessToken: res.Bearer, RefreshToken: res.RefreshToken, Session: res.Session}
}

func isAdmin(role string) bool { return role == domain.RoleAdmin }
