package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/pkg/id"
)

type Service interface {
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	Notify(ctx context.Context, userID, kind, referenceID, message string) error
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) error
}

type service struct {
	repo notificationStore
}

func NewService(repo notificationStore) Service {
	return &service{repo: repo}
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.repo.ListUnread(ctx, userID)
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		// Hide other users' notifications entirely.
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	if n.Read == 1 {
		return n, nil
	}
	if err := s.repo.MarkAsRead(ctx, notificationID); err != nil {
		return nil, err
	}
	n.Read = 1
	n.UpdatedAt = time.Now().UTC()
	return n, nil
}

func (s *service) Notify(ctx context.Context, userID, kind, referenceID, message string) error {
	now := time.Now().UTC()
	return s.repo.Put(ctx, &domain.Notification{
		NotificationID: id.New(),
		UserID:         userID,
		Kind:           kind,
		ReferenceID:    referenceID,
		Message:        message,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}
