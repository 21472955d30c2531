package http

import (
	"context"

	"github.com/diaspora-journey-api/internal/application/auth"
	"github.com/diaspora-journey-api/internal/application/journey"
	"github.com/diaspora-journey-api/internal/application/notification"
	"github.com/diaspora-journey-api/internal/application/security"
	"github.com/diaspora-journey-api/internal/application/session"
	"github.com/diaspora-journey-api/internal/application/user"
	"github.com/diaspora-journey-api/internal/application/verification"
	"github.com/diaspora-journey-api/internal/config"
	"github.com/diaspora-journey-api/internal/infrastructure/dynamo"
	"github.com/diaspora-journey-api/internal/infrastructure/email"
	jwtinfra "github.com/diaspora-journey-api/internal/infrastructure/jwt"
	s3infra "github.com/diaspora-journey-api/internal/infrastructure/s3"
)

// SMSSender delivers text messages. Leave it nil to disable SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo          *dynamo.UserRepo
	SessionRepo       *dynamo.SessionRepo
	CodeRepo          *dynamo.CodeRepo
	NotificationRepo  *dynamo.NotificationRepo
	RequestRepo       *dynamo.VerificationRequestRepo
	DocumentRepo      *dynamo.DocumentRepo
	AuditRepo         *dynamo.AuditRepo
	BadgeRepo         *dynamo.BadgeRepo
	VerificationTx    *dynamo.VerificationTx
	StageRepo         *dynamo.StageRepo
	DependencyRepo    *dynamo.DependencyRepo
	ProgressRepo      *dynamo.ProgressRepo
	SecurityEventRepo *dynamo.SecurityEventRepo
	S3Store           *s3infra.Store
	Mailer            email.Sender
	SMSSender         SMSSender
	JWTProvider       *jwtinfra.Provider
}

// Services is the application layer the handlers call into.
type Services struct {
	Session      session.Service
	User         user.Service
	Auth         auth.Service
	Notification notification.Service
	Security     security.Service
	Verification verification.Service
	Journey      journey.Service
}

// NewServices wires every application service from deps.
func NewServices(cfg *config.Config, deps *Deps) *Services {
	templates := email.Templates{AppName: cfg.AppName, AppURL: cfg.AppURL}
	events := security.NewService(deps.SecurityEventRepo)
	notifications := notification.NewService(deps.NotificationRepo)

	return &Services{
		Session: session.NewService(session.ServiceDeps{
			SessionRepo:     deps.SessionRepo,
			UserRepo:        deps.UserRepo,
			JWTProvider:     deps.JWTProvider,
			Events:          events,
			RefreshTokenDur: cfg.RefreshTokenExpiry,
		}),
		User: user.NewService(user.ServiceDeps{
			UserRepo:        deps.UserRepo,
			SessionRepo:     deps.SessionRepo,
			JWTProvider:     deps.JWTProvider,
			Mailer:          deps.Mailer,
			Templates:       templates,
			Events:          events,
			RefreshTokenDur: cfg.RefreshTokenExpiry,
		}),
		Auth: auth.NewService(auth.ServiceDeps{
			CodeRepo:        deps.CodeRepo,
			UserRepo:        deps.UserRepo,
			SessionRepo:     deps.SessionRepo,
			JWTProvider:     deps.JWTProvider,
			Mailer:          deps.Mailer,
			Templates:       templates,
			Events:          events,
			RefreshTokenDur: cfg.RefreshTokenExpiry,
		}),
		Notification: notifications,
		Security:     events,
		Verification: verification.NewService(verification.ServiceDeps{
			RequestRepo:  deps.RequestRepo,
			DocumentRepo: deps.DocumentRepo,
			AuditRepo:    deps.AuditRepo,
			BadgeRepo:    deps.BadgeRepo,
			Decisions:    deps.VerificationTx,
			UserRepo:     deps.UserRepo,
			Objects:      deps.S3Store,
			Notifier:     notifications,
			Mailer:       deps.Mailer,
			SMS:          deps.SMSSender,
			Templates:    templates,
			Events:       events,
			URLTTL:       cfg.DocumentURLTTL,
			MaxBytes:     cfg.MaxDocumentBytes,
		}),
		Journey: journey.NewService(journey.ServiceDeps{
			StageRepo:      deps.StageRepo,
			DependencyRepo: deps.DependencyRepo,
			ProgressRepo:   deps.ProgressRepo,
		}),
	}
}
