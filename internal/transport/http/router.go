package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/diaspora-journey-api/internal/config"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/transport/http/handler"
	appmiddleware "github.com/diaspora-journey-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps, svcs *Services) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if len(cfg.TrustedProxies) > 0 {
		proxies, err := appmiddleware.ParseTrustedProxies(cfg.TrustedProxies)
		if err != nil {
			slog.Error("ignoring TRUSTED_PROXIES", "err", err)
		} else {
			r.Use(appmiddleware.RealIP(proxies))
		}
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider, deps.SessionRepo)
	adminOnly := appmiddleware.RequireRole(domain.RoleAdmin)

	// 5 requests/second, burst of 10, on public endpoints that accept credentials.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(svcs.Session)
	userH := handler.NewUserHandler(svcs.User)
	pwH := handler.NewPasswordRecoveryHandler(svcs.Auth)
	emailH := handler.NewEmailConfirmHandler(svcs.Auth)
	notifH := handler.NewNotificationHandler(svcs.Notification)
	eventH := handler.NewSecurityEventHandler(svcs.Security)
	verifH := handler.NewVerificationHandler(svcs.Verification, cfg.MaxDocumentBytes)
	adminVerifH := handler.NewAdminVerificationHandler(svcs.Verification)
	journeyH := handler.NewJourneyHandler(svcs.Journey)

	r.Route("/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", pwH.Action)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)
			r.Post("/password-recovery/change-password", pwH.ChangePassword)
			r.Post("/confirm-email/{action}", emailH.Action)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Get("/users/{id}/badges", verifH.UserBadges)

			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}", notifH.MarkAsRead)
			r.Get("/security-events", eventH.Mine)

			r.Get("/credential-types", verifH.CredentialTypes)
			r.Post("/verifications", verifH.Submit)
			r.Get("/verifications", verifH.ListMine)
			r.Get("/verifications/{id}", verifH.Get)
			r.Post("/verifications/{id}/documents", verifH.AttachDocument)
			r.Get("/verifications/{id}/documents/{docID}/url", verifH.DocumentURL)
			r.Get("/badges", verifH.MyBadges)

			r.Get("/journey/stages", journeyH.ListStages)
			r.Get("/journey/stages/{id}", journeyH.GetStage)
			r.Get("/journey/graph", journeyH.Graph)
			r.Get("/journey/progress", journeyH.ListProgress)
			r.Put("/journey/progress/{stageID}", journeyH.UpsertProgress)
			r.Get("/journey/summary", journeyH.Summary)

			// Admin-only routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)

				r.Get("/verifications", adminVerifH.List)
				r.Get("/verifications/stats", adminVerifH.Stats)
				r.Post("/verifications/bulk-review", adminVerifH.BulkReview)
				r.Get("/verifications/{id}", adminVerifH.Get)
				r.Get("/verifications/{id}/audit", adminVerifH.Audit)
				r.Post("/verifications/{id}/review", adminVerifH.Review)
				r.Post("/badges/{id}/revoke", adminVerifH.RevokeBadge)

				r.Post("/journey/stages", journeyH.CreateStage)
				r.Put("/journey/stages/{id}", journeyH.UpdateStage)
				r.Post("/journey/dependencies", journeyH.AddDependency)
				r.Delete("/journey/dependencies/{id}", journeyH.RemoveDependency)

				r.Get("/security-events", eventH.List)
			})
		})
	})

	return r
}
