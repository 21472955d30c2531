package security

import (
	"context"
	"log/slog"
	"time"

	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/pkg/id"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Service interface {
	// Record stores an event. Failures are logged and never returned, so an
	// audit outage cannot block sign-in or review flows.
	Record(ctx context.Context, e domain.SecurityEvent)
	List(ctx context.Context, f domain.SecurityEventFilter) ([]domain.SecurityEvent, string, error)
	ListMine(ctx context.Context, userID string, limit int, cursor string) ([]domain.SecurityEvent, string, error)
}

type eventStore interface {
	Put(ctx context.Context, e *domain.SecurityEvent) error
	List(ctx context.Context, f domain.SecurityEventFilter) ([]domain.SecurityEvent, string, error)
}

type service struct {
	repo eventStore
}

func NewService(repo eventStore) Service {
	return &service{repo: repo}
}

func (s *service) Record(ctx context.Context, e domain.SecurityEvent) {
	if e.EventID == "" {
		e.EventID = id.New()
	}
	if e.Severity == "" {
		e.Severity = severityFor(e.Type)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Put(ctx, &e); err != nil {
		slog.Error("record security event", "type", e.Type, "user_id", e.UserID, "err", err)
		return
	}
	slog.Info("security event", "type", e.Type, "severity", e.Severity, "user_id", e.UserID, "ip", e.IP)
}

func (s *service) List(ctx context.Context, f domain.SecurityEventFilter) ([]domain.SecurityEvent, string, error) {
	f.Limit = clampLimit(f.Limit)
	return s.repo.List(ctx, f)
}

func (s *service) ListMine(ctx context.Context, userID string, limit int, cursor string) ([]domain.SecurityEvent, string, error) {
	return s.repo.List(ctx, domain.SecurityEventFilter{UserID: userID, Limit: clampLimit(limit), Cursor: cursor})
}

// Event builds an event for userID with the caller's request metadata.
func Event(eventType, userID string, meta domain.RequestMeta, kv ...string) domain.SecurityEvent {
	e := domain.SecurityEvent{
		Type:      eventType,
		UserID:    userID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}
	if len(kv) > 1 {
		e.Metadata = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Metadata[kv[i]] = kv[i+1]
		}
	}
	return e
}

func severityFor(eventType string) string {
	switch eventType {
	case domain.EventLoginFailed, domain.EventRefreshTokenInvalid, domain.EventPasswordResetRequested:
		return domain.SeverityWarning
	case domain.EventAccountDisabled, domain.EventBadgeRevoked:
		return domain.SeverityCritical
	}
	return domain.SeverityInfo
}

func clampLimit(limit int) int {
	if limit < 1 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
