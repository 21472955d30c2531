package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/diaspora-journey-api/internal/domain"
	jwtinfra "github.com/diaspora-journey-api/internal/infrastructure/jwt"
)

type contextKey string

const claimsKey contextKey = "claims"

type tokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// SessionLookup resolves the session a bearer token is bound to.
type SessionLookup interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Auth returns middleware that validates the Bearer JWT and injects claims into context.
// When sessions is non-nil the token's session must still be enabled, so logout
// and account disabling take effect before the token expires.
func Auth(provider tokenVerifier, sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := provider.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if sessions != nil {
				sess, err := sessions.Get(r.Context(), claims.SessionID)
				if err != nil || !sess.Enable || sess.UserID != claims.UserID {
					writeJSONError(w, http.StatusUnauthorized, "session is no longer active")
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, claims *jwtinfra.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*jwtinfra.Claims)
	return c, ok
}
