package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/diaspora-journey-api/internal/application/security"
	"github.com/diaspora-journey-api/internal/application/session"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/infrastructure/email"
	"github.com/diaspora-journey-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldUsername        = "username"
	fieldEmail           = "email"
	fieldPhone           = "phone"
	fieldFirstName       = "first_name"
	fieldLastName        = "last_name"
	fieldHeadline        = "headline"
	fieldCountryOfOrigin = "country_of_origin"
	fieldRole            = "role"
	fieldEnable          = "enable"
	fieldEmailConfirmed  = "email_confirmed"
	fieldPhoneConfirmed  = "phone_confirmed"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest, meta domain.RequestMeta) (*session.LoginResult, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	// Update applies a partial update. Role and enable changes require byAdmin.
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest, byAdmin bool, meta domain.RequestMeta) (*domain.User, error)
	Delete(ctx context.Context, adminID, userID string, meta domain.RequestMeta) error
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	QueryPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	SoftDeleteByUser(ctx context.Context, userID string) error
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
	repo        userStore
	sessionRepo sessionStore
	issuer      *session.Issuer
	mailer      mailer
	templates   email.Templates
	events      eventRecorder
}

type ServiceDeps struct {
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
		repo:        deps.UserRepo,
		sessionRepo: deps.SessionRepo,
		issuer:      session.NewIssuer(deps.SessionRepo, deps.JWTProvider, deps.RefreshTokenDur),
		mailer:      deps.Mailer,
		templates:   deps.Templates,
		events:      deps.Events,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest, meta domain.RequestMeta) (*session.LoginResult, error) {
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:          id.New(),
		Username:        req.Username,
		Email:           req.Email,
		Phone:           req.Phone,
		PasswordHash:    string(hash),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Headline:        req.Headline,
		CountryOfOrigin: req.CountryOfOrigin,
		Role:            domain.RoleUser,
		Enable:          1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	res, err := s.issuer.Issue(ctx, u, meta)
	if err != nil {
		return nil, err
	}
	s.events.Record(ctx, security.Event(domain.EventAccountCreated, u.UserID, meta))
	if err := s.mailer.Send(ctx, s.templates.Welcome(u.Email, u.FullName())); err != nil {
		slog.Warn("welcome email failed", "user_id", u.UserID, "err", err)
	}
	return res, nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return s.repo.QueryPage(ctx, int32(limit), cursor)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest, byAdmin bool, meta domain.RequestMeta) (*domain.User, error) {
	if !byAdmin && (req.Role != nil || req.Enable != nil) {
		return nil, fmt.Errorf("only admins can change role or enable: %w", domain.ErrForbidden)
	}
	current, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Username != nil && *req.Username != current.Username {
		if _, err := s.repo.GetByUsername(ctx, *req.Username); err == nil {
			return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
		}
		updates[fieldUsername] = *req.Username
	}
	if req.Email != nil && *req.Email != current.Email {
		if _, err := s.repo.GetByEmail(ctx, *req.Email); err == nil {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		updates[fieldEmail] = *req.Email
		updates[fieldEmailConfirmed] = false
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
		updates[fieldPhoneConfirmed] = false
	}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Headline != nil {
		updates[fieldHeadline] = *req.Headline
	}
	if req.CountryOfOrigin != nil {
		updates[fieldCountryOfOrigin] = *req.CountryOfOrigin
	}
	if req.Role != nil {
		if !domain.ValidRole(*req.Role) {
			return nil, fmt.Errorf("invalid role: %w", domain.ErrBadRequest)
		}
		updates[fieldRole] = *req.Role
	}
	if req.Enable != nil {
		updates[fieldEnable] = *req.Enable
	}
	if len(updates) == 0 {
		return current, nil
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	if req.Enable != nil && *req.Enable == 0 {
		if err := s.sessionRepo.SoftDeleteByUser(ctx, userID); err != nil {
			return nil, err
		}
		s.events.Record(ctx, security.Event(domain.EventAccountDisabled, userID, meta))
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) Delete(ctx context.Context, adminID, userID string, meta domain.RequestMeta) error {
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return err
	}
	if err := s.sessionRepo.SoftDeleteByUser(ctx, userID); err != nil {
		return err
	}
	s.events.Record(ctx, security.Event(domain.EventAccountDisabled, userID, meta, "admin_id", adminID))
	return nil
}
