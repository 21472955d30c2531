package http

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diaspora-journey-api/internal/config"
	jwtinfra "github.com/diaspora-journey-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cfg := &config.Config{AppName: "Journey", AllowedOrigins: []string{"*"}, MaxDocumentBytes: 1 << 20}
	deps := &Deps{JWTProvider: jwtinfra.New(key, &key.PublicKey, time.Hour)}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRouter(ctx, cfg, deps, NewServices(cfg, deps))
}

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/v1/health-check/ping", http.StatusOK},
		{http.MethodGet, "/v1/journey/stages", http.StatusUnauthorized},
		{http.MethodGet, "/v1/verifications", http.StatusUnauthorized},
		{http.MethodPost, "/v1/password-recovery/change-password", http.StatusUnauthorized},
		{http.MethodGet, "/v1/admin/verifications", http.StatusUnauthorized},
		{http.MethodGet, "/v1/nowhere", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}
