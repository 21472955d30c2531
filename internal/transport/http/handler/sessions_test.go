package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diaspora-journey-api/internal/application/auth"
	"github.com/diaspora-journey-api/internal/application/session"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) Login(ctx context.Context, req session.LoginRequest, meta domain.RequestMeta) (*session.LoginResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*session.LoginResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionSvc) Logout(ctx context.Context, userID, sessionID string, meta domain.RequestMeta) error {
	return m.Called(ctx, userID, sessionID).Error(0)
}
func (m *mockSessionSvc) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionSvc) Refresh(ctx context.Context, refreshToken string, meta domain.RequestMeta) (*session.LoginResult, error) {
	args := m.Called(ctx, refreshToken)
	if res, _ := args.Get(0).(*session.LoginResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) RequestPasswordRecovery(ctx context.Context, req auth.PasswordRecoveryRequest, meta domain.RequestMeta) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockAuthSvc) ValidateOTP(ctx context.Context, req auth.ValidateOTPRequest, meta domain.RequestMeta) (*session.LoginResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*session.LoginResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) ChangePassword(ctx context.Context, userID, newPassword string, meta domain.RequestMeta) error {
	return m.Called(ctx, userID, newPassword).Error(0)
}
func (m *mockAuthSvc) RequestEmailConfirmation(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockAuthSvc) ValidateEmailToken(ctx context.Context, userID, token string, meta domain.RequestMeta) error {
	return m.Called(ctx, userID, token).Error(0)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("Login", mock.Anything, session.LoginRequest{Username: "amara", Password: "nope"}).Return(nil, domain.ErrUnauthorized)
	h := NewSessionHandler(svc)

	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", jsonBody(t, session.LoginRequest{Username: "amara", Password: "nope"}))
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRefresh_MissingToken(t *testing.T) {
	svc := &mockSessionSvc{}
	h := NewSessionHandler(svc)

	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/refresh", jsonBody(t, map[string]string{}))
	rr := httptest.NewRecorder()
	h.Refresh(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "refresh_token", decodeError(t, rr).Details[0].Field)
}

func TestLogout_UsesTokenSession(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("Logout", mock.Anything, "u1", "sess1").Return(nil)
	h := NewSessionHandler(svc)

	r := asUser(httptest.NewRequest(http.MethodPost, "/v1/sessions/logout", nil), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Logout(rr, r)
	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestPasswordRecovery_RequestIsAccepted(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("RequestPasswordRecovery", mock.Anything, auth.PasswordRecoveryRequest{Email: "ghost@example.com"}).Return(nil)
	h := NewPasswordRecoveryHandler(svc)

	r := withParams(httptest.NewRequest(http.MethodPost, "/", jsonBody(t, auth.PasswordRecoveryRequest{Email: "ghost@example.com"})), "action", "request")
	rr := httptest.NewRecorder()
	h.Action(rr, r)
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestPasswordRecovery_ValidateRejectsShortCode(t *testing.T) {
	svc := &mockAuthSvc{}
	h := NewPasswordRecoveryHandler(svc)

	body := jsonBody(t, auth.ValidateOTPRequest{Email: "amara@example.com", OTP: "12"})
	r := withParams(httptest.NewRequest(http.MethodPost, "/", body), "action", "validate")
	rr := httptest.NewRecorder()
	h.Action(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "ValidateOTP", mock.Anything, mock.Anything)
}

func TestPasswordRecovery_UnknownAction(t *testing.T) {
	h := NewPasswordRecoveryHandler(&mockAuthSvc{})
	r := withParams(httptest.NewRequest(http.MethodPost, "/", nil), "action", "reset-everything")
	rr := httptest.NewRecorder()
	h.Action(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEmailConfirm_AlreadyConfirmed(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("RequestEmailConfirmation", mock.Anything, "u1").Return(domain.ErrConflict)
	h := NewEmailConfirmHandler(svc)

	r := asUser(withParams(httptest.NewRequest(http.MethodPost, "/", nil), "action", "request"), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Action(rr, r)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHealthPing(t *testing.T) {
	h := NewHealthHandler()
	rr := httptest.NewRecorder()
	h.Ping(rr, withParams(httptest.NewRequest(http.MethodGet, "/", nil), "action", "ping"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"message":"pong"}}`, rr.Body.String())
}
