package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diaspora-journey-api/internal/application/verification"
	"github.com/diaspora-journey-api/internal/config"
	"github.com/diaspora-journey-api/internal/infrastructure/dynamo"
	"github.com/diaspora-journey-api/internal/infrastructure/email"
	jwtinfra "github.com/diaspora-journey-api/internal/infrastructure/jwt"
	resendinfra "github.com/diaspora-journey-api/internal/infrastructure/resend"
	s3infra "github.com/diaspora-journey-api/internal/infrastructure/s3"
	"github.com/diaspora-journey-api/internal/infrastructure/smtp"
	"github.com/diaspora-journey-api/internal/infrastructure/sns"
	"github.com/diaspora-journey-api/internal/logger"
	transporthttp "github.com/diaspora-journey-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.IsDev())
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("dynamo client: %w", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("s3 client: %w", err)
	}
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)
	if err := s3Store.EnsureBucket(ctx); err != nil {
		slog.Warn("s3 bucket check failed", "bucket", cfg.S3BucketName, "error", err)
	}

	mailer, err := newMailer(cfg)
	if err != nil {
		return fmt.Errorf("email sender: %w", err)
	}

	tables := cfg.DynamoTables
	deps := &transporthttp.Deps{
		UserRepo:          dynamo.NewUserRepo(dynamoClient, tables.Users),
		SessionRepo:       dynamo.NewSessionRepo(dynamoClient, tables.Sessions),
		CodeRepo:          dynamo.NewCodeRepo(dynamoClient, tables.OneTimeCodes),
		NotificationRepo:  dynamo.NewNotificationRepo(dynamoClient, tables.Notifications),
		RequestRepo:       dynamo.NewVerificationRequestRepo(dynamoClient, tables.VerificationRequests),
		DocumentRepo:      dynamo.NewDocumentRepo(dynamoClient, tables.VerificationDocs),
		AuditRepo:         dynamo.NewAuditRepo(dynamoClient, tables.VerificationAudit),
		BadgeRepo:         dynamo.NewBadgeRepo(dynamoClient, tables.Badges),
		VerificationTx:    dynamo.NewVerificationTx(dynamoClient, tables.VerificationRequests, tables.Badges),
		StageRepo:         dynamo.NewStageRepo(dynamoClient, tables.JourneyStages),
		DependencyRepo:    dynamo.NewDependencyRepo(dynamoClient, tables.StageDependencies),
		ProgressRepo:      dynamo.NewProgressRepo(dynamoClient, tables.JourneyProgress),
		SecurityEventRepo: dynamo.NewSecurityEventRepo(dynamoClient, tables.SecurityEvents),
		S3Store:           s3Store,
		Mailer:            mailer,
		JWTProvider:       jwtProvider,
	}
	// SMS is optional; a nil interface disables it.
	if sender, err := sns.NewSender(ctx, cfg); err == nil {
		deps.SMSSender = sender
	} else {
		slog.Warn("sns sender not available, sms disabled", "error", err)
	}

	svcs := transporthttp.NewServices(cfg, deps)
	go sweepBadges(ctx, svcs.Verification, cfg.BadgeSweepInterval)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps, svcs),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newMailer selects the delivery provider and wraps it with retries.
func newMailer(cfg *config.Config) (email.Sender, error) {
	var provider email.Sender
	switch cfg.EmailProvider {
	case "smtp":
		provider = smtp.NewMailer(cfg)
	case "resend":
		s, err := resendinfra.NewSender(cfg.ResendAPIKey, cfg.EmailFrom)
		if err != nil {
			return nil, err
		}
		provider = s
	case "log", "":
		provider = email.LogSender{}
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
	slog.Info("email provider selected", "provider", cfg.EmailProvider, "max_attempts", cfg.EmailMaxAttempts)
	return email.NewRetryingSender(provider, cfg.EmailMaxAttempts, cfg.EmailInitialBackoff), nil
}

// sweepBadges expires approved verifications on a fixed interval until ctx is done.
func sweepBadges(ctx context.Context, svc verification.Service, every time.Duration) {
	if every <= 0 {
		slog.Info("badge expiry sweeper disabled")
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := svc.ExpireDue(ctx, now.UTC())
			if err != nil {
				slog.Error("badge expiry sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired verification badges", "count", n)
			}
		}
	}
}
