package handler

import (
	"errors"
	"net/http"

	"github.com/diaspora-journey-api/internal/application/verification"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// multipart framing allowance on top of the document size limit.
const formOverhead = 1 << 20

// VerificationHandler serves the user-facing verification endpoints.
type VerificationHandler struct {
	svc      verification.Service
	maxBytes int64
}

func NewVerificationHandler(svc verification.Service, maxBytes int64) *VerificationHandler {
	return &VerificationHandler{svc: svc, maxBytes: maxBytes}
}

type documentForm struct {
	Kind string `json:"kind" validate:"required,max=40"`
}

func (h *VerificationHandler) CredentialTypes(w http.ResponseWriter, _ *http.Request) {
	types := h.svc.ListCredentialTypes()
	writeData(w, http.StatusOK, types, ListMeta{Count: len(types)})
}

func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.SubmitVerificationRequest
	if !decode(w, r, &req) {
		return
	}
	vr, err := h.svc.Submit(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, vr, nil)
}

func (h *VerificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := h.svc.ListMine(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list, ListMeta{Count: len(list)})
}

func (h *VerificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	vr, err := h.svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "id"), isAdmin(claims.Role))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, vr, nil)
}

func (h *VerificationHandler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "document too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form with kind and file")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := documentForm{Kind: r.FormValue("kind")}
	if !check(w, r, &form) {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	doc, err := h.svc.AttachDocument(r.Context(), claims.UserID, chi.URLParam(r, "id"), verification.Upload{
		Kind:        form.Kind,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, doc, nil)
}

func (h *VerificationHandler) DocumentURL(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	url, err := h.svc.DocumentURL(r.Context(), claims.UserID, chi.URLParam(r, "id"), chi.URLParam(r, "docID"), isAdmin(claims.Role))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"url": url}, nil)
}

// MyBadges lists the caller's badges.
func (h *VerificationHandler) MyBadges(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.writeBadges(w, r, claims.UserID)
}

// UserBadges lists another member's badges, as shown on their profile.
func (h *VerificationHandler) UserBadges(w http.ResponseWriter, r *http.Request) {
	h.writeBadges(w, r, chi.URLParam(r, "id"))
}

func (h *VerificationHandler) writeBadges(w http.ResponseWriter, r *http.Request, userID string) {
	badges, err := h.svc.ListBadges(r.Context(), userID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, badges, ListMeta{Count: len(badges)})
}
