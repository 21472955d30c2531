package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diaspora-journey-api/internal/domain"
	jwtinfra "github.com/diaspora-journey-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
)

func serveWithRole(role string, allowed ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if role != "" {
		req = req.WithContext(WithClaims(req.Context(), &jwtinfra.Claims{UserID: "u1", Role: role}))
	}
	rr := httptest.NewRecorder()
	RequireRole(allowed...)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	return rr
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		role    string
		allowed []string
		want    int
	}{
		{"no claims", "", []string{domain.RoleAdmin}, http.StatusUnauthorized},
		{"wrong role", domain.RoleUser, []string{domain.RoleAdmin}, http.StatusForbidden},
		{"admin", domain.RoleAdmin, []string{domain.RoleAdmin}, http.StatusOK},
		{"any of several", domain.RoleUser, []string{domain.RoleAdmin, domain.RoleUser}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serveWithRole(tc.role, tc.allowed...)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestRequireRole_ForbiddenBodyIsJSON(t *testing.T) {
	rr := serveWithRole(domain.RoleUser, domain.RoleAdmin)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"forbidden"}`, rr.Body.String())
}
