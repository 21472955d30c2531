package session

import (
	"context"
	"time"

	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/pkg/id"
	pkgtoken "github.com/diaspora-journey-api/internal/pkg/token"
)

type sessionWriter interface {
	Put(ctx context.Context, s *domain.Session) error
}

type jwtSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

// Issuer opens a new session for an authenticated user and signs its bearer
// token. Shared by login, registration and OTP sign-in.
type Issuer struct {
	sessions   sessionWriter
	signer     jwtSigner
	refreshDur time.Duration
}

func NewIssuer(sessions sessionWriter, signer jwtSigner, refreshDur time.Duration) *Issuer {
	return &Issuer{sessions: sessions, signer: signer, refreshDur: refreshDur}
}

func (i *Issuer) Issue(ctx context.Context, u *domain.User, meta domain.RequestMeta) (*LoginResult, error) {
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(i.refreshDur).Unix(),
		IP:               meta.IP,
		UserAgent:        meta.UserAgent,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := i.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := i.signer.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}
