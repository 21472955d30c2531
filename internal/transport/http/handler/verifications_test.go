package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/diaspora-journey-api/internal/application/verification"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockVerificationSvc struct{ mock.Mock }

func (m *mockVerificationSvc) ListCredentialTypes() []domain.CredentialType {
	return m.Called().Get(0).([]domain.CredentialType)
}
func (m *mockVerificationSvc) Submit(ctx context.Context, userID string, req domain.SubmitVerificationRequest) (*domain.VerificationRequest, error) {
	args := m.Called(ctx, userID, req)
	if v, _ := args.Get(0).(*domain.VerificationRequest); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerificationSvc) AttachDocument(ctx context.Context, userID, requestID string, up verification.Upload) (*domain.VerificationDocument, error) {
	body, _ := io.ReadAll(up.Body)
	up.Body = nil
	args := m.Called(ctx, userID, requestID, up, string(body))
	if d, _ := args.Get(0).(*domain.VerificationDocument); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerificationSvc) ListMine(ctx context.Context, userID string) ([]domain.VerificationRequest, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.VerificationRequest), args.Error(1)
}
func (m *mockVerificationSvc) Get(ctx context.Context, userID, requestID string, isAdmin bool) (*domain.VerificationRequest, error) {
	args := m.Called(ctx, userID, requestID, isAdmin)
	if v, _ := args.Get(0).(*domain.VerificationRequest); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerificationSvc) DocumentURL(ctx context.Context, userID, requestID, documentID string, isAdmin bool) (string, error) {
	args := m.Called(ctx, userID, requestID, documentID, isAdmin)
	return args.String(0), args.Error(1)
}
func (m *mockVerificationSvc) ListBadges(ctx context.Context, userID string) ([]domain.VerificationBadge, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.VerificationBadge), args.Error(1)
}
func (m *mockVerificationSvc) AdminList(ctx context.Context, f domain.VerificationFilter) ([]domain.VerificationRequest, string, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.VerificationRequest), args.String(1), args.Error(2)
}
func (m *mockVerificationSvc) Stats(ctx context.Context) (domain.VerificationStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.VerificationStats), args.Error(1)
}
func (m *mockVerificationSvc) Review(ctx context.Context, adminID, requestID string, req domain.ReviewRequest, meta domain.RequestMeta) (*domain.VerificationRequest, error) {
	args := m.Called(ctx, adminID, requestID, req)
	if v, _ := args.Get(0).(*domain.VerificationRequest); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerificationSvc) BulkReview(ctx context.Context, adminID string, req domain.BulkReviewRequest, meta domain.RequestMeta) []domain.BulkResult {
	return m.Called(ctx, adminID, req).Get(0).([]domain.BulkResult)
}
func (m *mockVerificationSvc) RevokeBadge(ctx context.Context, adminID, badgeID, reason string, meta domain.RequestMeta) (*domain.VerificationBadge, error) {
	args := m.Called(ctx, adminID, badgeID, reason)
	if b, _ := args.Get(0).(*domain.VerificationBadge); b != nil {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerificationSvc) AuditTrail(ctx context.Context, requestID string) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}
func (m *mockVerificationSvc) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func multipartUpload(t *testing.T, kind, name, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if kind != "" {
		require.NoError(t, mw.WriteField("kind", kind))
	}
	if name != "" {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSubmit_Validation(t *testing.T) {
	svc := &mockVerificationSvc{}
	h := NewVerificationHandler(svc, 1<<20)

	body := jsonBody(t, domain.SubmitVerificationRequest{CredentialType: "astrology", Title: "x", Issuer: "y"})
	r := asUser(httptest.NewRequest(http.MethodPost, "/v1/verifications", body), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Submit(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	details := decodeError(t, rr).Details
	require.Len(t, details, 1)
	assert.Equal(t, "credential_type", details[0].Field)
}

func TestSubmit_RejectsLineBreaksInTitle(t *testing.T) {
	svc := &mockVerificationSvc{}
	h := NewVerificationHandler(svc, 1<<20)

	body := jsonBody(t, domain.SubmitVerificationRequest{
		CredentialType: domain.CredentialEducation,
		Title:          "BSc\r\nBcc: attacker@evil.test",
		Issuer:         "UNILAG",
	})
	r := asUser(httptest.NewRequest(http.MethodPost, "/v1/verifications", body), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Submit(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	details := decodeError(t, rr).Details
	require.Len(t, details, 1)
	assert.Equal(t, "title", details[0].Field)
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestAttachDocument(t *testing.T) {
	svc := &mockVerificationSvc{}
	want := verification.Upload{Kind: "diploma", FileName: "diploma.pdf", ContentType: "application/pdf", Size: 8}
	svc.On("AttachDocument", mock.Anything, "u1", "r1", want, "%PDF-1.7").
		Return(&domain.VerificationDocument{DocumentID: "d1", Kind: "diploma"}, nil)
	h := NewVerificationHandler(svc, 1<<20)

	buf, ct := multipartUpload(t, "diploma", "diploma.pdf", "application/pdf", "%PDF-1.7")
	r := httptest.NewRequest(http.MethodPost, "/v1/verifications/r1/documents", buf)
	r.Header.Set("Content-Type", ct)
	r = asUser(withParams(r, "id", "r1"), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.AttachDocument(rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	svc.AssertExpectations(t)
}

func TestAttachDocument_MissingKind(t *testing.T) {
	svc := &mockVerificationSvc{}
	h := NewVerificationHandler(svc, 1<<20)

	buf, ct := multipartUpload(t, "", "diploma.pdf", "application/pdf", "%PDF")
	r := httptest.NewRequest(http.MethodPost, "/v1/verifications/r1/documents", buf)
	r.Header.Set("Content-Type", ct)
	r = asUser(withParams(r, "id", "r1"), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.AttachDocument(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "kind", decodeError(t, rr).Details[0].Field)
}

func TestAttachDocument_NotMultipart(t *testing.T) {
	h := NewVerificationHandler(&mockVerificationSvc{}, 1<<20)
	r := asUser(withParams(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{}")), "id", "r1"), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.AttachDocument(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDocumentURL_Forbidden(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("DocumentURL", mock.Anything, "u2", "r1", "d1", false).Return("", domain.ErrForbidden)
	h := NewVerificationHandler(svc, 1<<20)

	r := asUser(withParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", "r1", "docID", "d1"), "u2", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.DocumentURL(rr, r)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminList_Filters(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("AdminList", mock.Anything, domain.VerificationFilter{Status: domain.StatusPending, CredentialType: "education", Limit: 10}).
		Return([]domain.VerificationRequest{{RequestID: "r1"}}, "next", nil)
	h := NewAdminVerificationHandler(svc)

	r := asUser(httptest.NewRequest(http.MethodGet, "/v1/admin/verifications?status=pending&credential_type=education&limit=10", nil), "admin1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	h.List(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeData(t, rr, nil)
	assert.JSONEq(t, `{"limit":10,"count":1,"next_cursor":"next"}`, string(env.Meta))
	svc.AssertExpectations(t)
}

func TestAdminList_UnknownStatus(t *testing.T) {
	svc := &mockVerificationSvc{}
	h := NewAdminVerificationHandler(svc)

	r := httptest.NewRequest(http.MethodGet, "/v1/admin/verifications?status=lost", nil)
	rr := httptest.NewRecorder()
	h.List(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "status", decodeError(t, rr).Details[0].Field)
}

func TestReview_InvalidTransitionIsConflict(t *testing.T) {
	svc := &mockVerificationSvc{}
	req := domain.ReviewRequest{Action: domain.ActionApprove}
	svc.On("Review", mock.Anything, "admin1", "r1", req).
		Return(nil, domain.CheckTransition(domain.StatusRejected, domain.StatusApproved))
	h := NewAdminVerificationHandler(svc)

	r := asUser(withParams(httptest.NewRequest(http.MethodPost, "/", jsonBody(t, req)), "id", "r1"), "admin1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	h.Review(rr, r)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestBulkReview_Summary(t *testing.T) {
	svc := &mockVerificationSvc{}
	req := domain.BulkReviewRequest{IDs: []string{"r1", "r2", "r3"}, Action: domain.ActionStartReview}
	svc.On("BulkReview", mock.Anything, "admin1", req).Return([]domain.BulkResult{
		{ID: "r1", OK: true, Status: domain.StatusUnderReview},
		{ID: "r2", OK: false, Error: "not found"},
		{ID: "r3", OK: true, Status: domain.StatusUnderReview},
	})
	h := NewAdminVerificationHandler(svc)

	r := asUser(httptest.NewRequest(http.MethodPost, "/", jsonBody(t, req)), "admin1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	h.BulkReview(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var results []domain.BulkResult
	env := decodeData(t, rr, &results)
	assert.Len(t, results, 3)
	var sum bulkSummary
	require.NoError(t, json.Unmarshal(env.Meta, &sum))
	assert.Equal(t, bulkSummary{Requested: 3, Succeeded: 2, Failed: 1}, sum)
}

func TestBulkReview_EmptyIDs(t *testing.T) {
	svc := &mockVerificationSvc{}
	h := NewAdminVerificationHandler(svc)

	body := jsonBody(t, domain.BulkReviewRequest{IDs: []string{}, Action: domain.ActionApprove})
	r := asUser(httptest.NewRequest(http.MethodPost, "/", body), "admin1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	h.BulkReview(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBulkReview_TooManyIDs(t *testing.T) {
	svc := &mockVerificationSvc{}
	h := NewAdminVerificationHandler(svc)

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = fmt.Sprintf("r%d", i)
	}
	body := jsonBody(t, domain.BulkReviewRequest{IDs: ids, Action: domain.ActionStartReview})
	r := asUser(httptest.NewRequest(http.MethodPost, "/", body), "admin1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	h.BulkReview(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	details := decodeError(t, rr).Details
	require.Len(t, details, 1)
	assert.Equal(t, "ids", details[0].Field)
	assert.Equal(t, "max", details[0].Rule)
	svc.AssertNotCalled(t, "BulkReview", mock.Anything, mock.Anything, mock.Anything)
}

func TestBulkReview_HundredIDsAccepted(t *testing.T) {
	svc := &mockVerificationSvc{}
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = fmt.Sprintf("r%d", i)
	}
	req := domain.BulkReviewRequest{IDs: ids, Action: domain.ActionStartReview}
	svc.On("BulkReview", mock.Anything, "admin1", req).Return([]domain.BulkResult{})
	h := NewAdminVerificationHandler(svc)

	r := asUser(httptest.NewRequest(http.MethodPost, "/", jsonBody(t, req)), "admin1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	h.BulkReview(rr, r)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRevokeBadge_RequiresReason(t *testing.T) {
	svc := &mockVerificationSvc{}
	h := NewAdminVerificationHandler(svc)

	r := asUser(withParams(httptest.NewRequest(http.MethodPost, "/", jsonBody(t, domain.RevokeBadgeRequest{})), "id", "b1"), "admin1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	h.RevokeBadge(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
