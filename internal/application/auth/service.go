package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/diaspora-journey-api/internal/application/security"
	"github.com/diaspora-journey-api/internal/application/session"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/infrastructure/email"
	pkgtoken "github.com/diaspora-journey-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpTTL          = 15 * time.Minute
	emailTokenTTL   = 24 * time.Hour
	emailTokenChars = 32
)

type PasswordRecoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ValidateOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type ValidateEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type Service interface {
	// RequestPasswordRecovery emails a one-time code. Unknown addresses return
	// nil so callers cannot tell which emails are registered.
	RequestPasswordRecovery(ctx context.Context, req PasswordRecoveryRequest, meta domain.RequestMeta) error
	ValidateOTP(ctx context.Context, req ValidateOTPRequest, meta domain.RequestMeta) (*session.LoginResult, error)
	ChangePassword(ctx context.Context, userID, newPassword string, meta domain.RequestMeta) error
	RequestEmailConfirmation(ctx context.Context, userID string) error
	ValidateEmailToken(ctx context.Context, userID, token string, meta domain.RequestMeta) error
}

type codeStore interface {
	Put(ctx context.Context, c *domain.OneTimeCode) error
	Get(ctx context.Context, userID, purpose string) (*domain.OneTimeCode, error)
	Delete(ctx context.Context, userID, purpose string) error
	RecordFailure(ctx context.Context, userID, purpose string) (int, error)
	Consume(ctx context.Context, userID, purpose, code string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

type jwtSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

type mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

type eventRecorder interface {
	Record(ctx context.Context, e domain.SecurityEvent)
}

type service struct {
	codeRepo  codeStore
	userRepo  userStore
	issuer    *session.Issuer
	mailer    mailer
	templates email.Templates
	events    eventRecorder
}

type ServiceDeps struct {
	CodeRepo        codeStore
	UserRepo        userStore
	SessionRepo     sessionStore
	JWTProvider     jwtSigner
	Mailer          mailer
	Templates       email.Templates
	Events          eventRecorder
	RefreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		codeRepo:  deps.CodeRepo,
		userRepo:  deps.UserRepo,
		issuer:    session.NewIssuer(deps.SessionRepo, deps.JWTProvider, deps.RefreshTokenDur),
		mailer:    deps.Mailer,
		templates: deps.Templates,
		events:    deps.Events,
	}
}

func (s *service) RequestPasswordRecovery(ctx context.Context, req PasswordRecoveryRequest, meta domain.RequestMeta) error {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil || u.Enable != 1 {
		slog.Info("password recovery for unknown or disabled account", "ip", meta.IP)
		return nil
	}
	otp, err := pkgtoken.NewOTP()
	if err != nil {
		return err
	}
	code := &domain.OneTimeCode{
		UserID:    u.UserID,
		Purpose:   domain.CodePurposeOTP,
		Code:      otp,
		ExpiresAt: time.Now().Add(otpTTL).Unix(),
	}
	if err := s.codeRepo.Put(ctx, code); err != nil {
		return err
	}
	s.events.Record(ctx, security.Event(domain.EventPasswordResetRequested, u.UserID, meta))
	if err := s.mailer.Send(ctx, s.templates.RecoveryCode(u.Email, u.FullName(), otp, otpTTL)); err != nil {
		slog.Error("recovery email failed", "user_id", u.UserID, "err", err)
	}
	return nil
}

func (s *service) ValidateOTP(ctx context.Context, req ValidateOTPRequest, meta domain.RequestMeta) (*session.LoginResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	}
	if u.Enable != 1 {
		s.events.Record(ctx, security.Event(domain.EventLoginFailed, u.UserID, meta, "reason", "account_disabled"))
		return nil, fmt.Errorf("account is disabled: %w", domain.ErrUnauthorized)
	}
	if err := s.consume(ctx, u.UserID, domain.CodePurposeOTP, req.OTP); err != nil {
		s.events.Record(ctx, security.Event(domain.EventLoginFailed, u.UserID, meta, "reason", "bad_otp"))
		return nil, err
	}
	res, err := s.issuer.Issue(ctx, u, meta)
	if err != nil {
		return nil, err
	}
	s.events.Record(ctx, security.Event(domain.EventPasswordResetCompleted, u.UserID, meta, "session_id", res.Session.SessionID))
	return res, nil
}

func (s *service) ChangePassword(ctx context.Context, userID, newPassword string, meta domain.RequestMeta) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return err
	}
	s.events.Record(ctx, security.Event(domain.EventPasswordChanged, userID, meta))
	return nil
}

func (s *service) RequestEmailConfirmation(ctx context.Context, userID string) error {
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.EmailConfirmed {
		return fmt.Errorf("email already confirmed: %w", domain.ErrConflict)
	}
	token, err := pkgtoken.NewAlphanumeric(emailTokenChars)
	if err != nil {
		return err
	}
	code := &domain.OneTimeCode{
		UserID:    userID,
		Purpose:   domain.CodePurposeEmail,
		Code:      token,
		ExpiresAt: time.Now().Add(emailTokenTTL).Unix(),
	}
	if err := s.codeRepo.Put(ctx, code); err != nil {
		return err
	}
	return s.mailer.Send(ctx, s.templates.ConfirmEmail(u.Email, u.FullName(), token))
}

func (s *service) ValidateEmailToken(ctx context.Context, userID, token string, meta domain.RequestMeta) error {
	if err := s.consume(ctx, userID, domain.CodePurposeEmail, token); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{"email_confirmed": true}); err != nil {
		return err
	}
	s.events.Record(ctx, security.Event(domain.EventEmailConfirmed, userID, meta))
	return nil
}

// consume redeems a stored code. Each wrong guess is counted and the code is
// burned after domain.MaxCodeAttempts failures. The TTL attribute is only
// swept eventually, so expiry is re-checked here.
func (s *service) consume(ctx context.Context, userID, purpose, presented string) error {
	invalid := fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	c, err := s.codeRepo.Get(ctx, userID, purpose)
	if err != nil {
		return invalid
	}
	if c.ExpiresAt < time.Now().Unix() {
		return fmt.Errorf("code expired: %w", domain.ErrUnauthorized)
	}
	if c.Attempts >= domain.MaxCodeAttempts {
		s.burn(ctx, userID, purpose)
		return invalid
	}
	if subtle.ConstantTimeCompare([]byte(c.Code), []byte(presented)) != 1 {
		n, err := s.codeRepo.RecordFailure(ctx, userID, purpose)
		if err != nil {
			slog.Warn("failed to count one-time code attempt", "user_id", userID, "purpose", purpose, "err", err)
			return invalid
		}
		if n >= domain.MaxCodeAttempts {
			s.burn(ctx, userID, purpose)
		}
		return invalid
	}
	if err := s.codeRepo.Consume(ctx, userID, purpose, presented); err != nil {
		return invalid
	}
	return nil
}

func (s *service) burn(ctx context.Context, userID, purpose string) {
	if err := s.codeRepo.Delete(ctx, userID, purpose); err != nil {
		slog.Warn("failed to delete one-time code", "user_id", userID, "purpose", purpose, "err", err)
	}
}
