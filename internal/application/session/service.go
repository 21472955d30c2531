package session

import (
	"context"
	"fmt"
	"time"

	"github.com/diaspora-journey-api/internal/application/security"
	"github.com/diaspora-journey-api/internal/domain"
	pkgtoken "github.com/diaspora-journey-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"` // username or email
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LoginResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	Login(ctx context.Context, req LoginRequest, meta domain.RequestMeta) (*LoginResult, error)
	Logout(ctx context.Context, userID, sessionID string, meta domain.RequestMeta) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string, meta domain.RequestMeta) (*LoginResult, error)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type sessionStore interface {
	sessionWriter
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	RotateRefreshToken(ctx context.Context, sessionID, oldToken, newToken string, newExpiry int64) error
}

type eventRecorder interface {
	Record(ctx context.Context, e domain.SecurityEvent)
}

type service struct {
	sessionRepo     sessionStore
	userRepo        userStore
	jwtProvider     jwtSigner
	issuer          *Issuer
	events          eventRecorder
	refreshTokenDur time.Duration
}

type ServiceDeps struct {
	SessionRepo     sessionStore
	UserRepo        userStore
	JWTProvider     jwtSigner
	Events          eventRecorder
	RefreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		sessionRepo:     deps.SessionRepo,
		userRepo:        deps.UserRepo,
		jwtProvider:     deps.JWTProvider,
		issuer:          NewIssuer(deps.SessionRepo, deps.JWTProvider, deps.RefreshTokenDur),
		events:          deps.Events,
		refreshTokenDur: deps.RefreshTokenDur,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest, meta domain.RequestMeta) (*LoginResult, error) {
	u, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		u, err = s.userRepo.GetByEmail(ctx, req.Username)
		if err != nil {
			s.events.Record(ctx, security.Event(domain.EventLoginFailed, "", meta, "login", req.Username, "reason", "unknown_user"))
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
	}
	if u.Enable != 1 {
		s.events.Record(ctx, security.Event(domain.EventLoginFailed, u.UserID, meta, "reason", "disabled"))
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.events.Record(ctx, security.Event(domain.EventLoginFailed, u.UserID, meta, "reason", "bad_password"))
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	res, err := s.issuer.Issue(ctx, u, meta)
	if err != nil {
		return nil, err
	}
	s.events.Record(ctx, security.Event(domain.EventLoginSucceeded, u.UserID, meta, "session_id", res.Session.SessionID))
	return res, nil
}

func (s *service) Logout(ctx context.Context, userID, sessionID string, meta domain.RequestMeta) error {
	if err := s.sessionRepo.Update(ctx, sessionID, map[string]interface{}{"enable": false}); err != nil {
		return err
	}
	s.events.Record(ctx, security.Event(domain.EventLogout, userID, meta, "session_id", sessionID))
	return nil
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return sess, nil
}

// Refresh swaps a valid refresh token for a new one and a fresh bearer. The
// rotation is conditional on the old token so a replayed token loses the race.
func (s *service) Refresh(ctx context.Context, refreshToken string, meta domain.RequestMeta) (*LoginResult, error) {
	sess, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		s.events.Record(ctx, security.Event(domain.EventRefreshTokenInvalid, "", meta, "reason", "unknown_token"))
		return nil, fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	if !sess.Enable || sess.RefreshExpiresAt < time.Now().Unix() {
		s.events.Record(ctx, security.Event(domain.EventRefreshTokenInvalid, sess.UserID, meta, "reason", "expired"))
		return nil, fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if u.Enable != 1 {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	newExpiry := time.Now().Add(s.refreshTokenDur).Unix()
	if err := s.sessionRepo.RotateRefreshToken(ctx, sess.SessionID, refreshToken, newToken, newExpiry); err != nil {
		return nil, err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.RefreshToken = newToken
	sess.RefreshExpiresAt = newExpiry
	sess.User = u
	return &LoginResult{Bearer: bearer, RefreshToken: newToken, Session: sess}, nil
}
