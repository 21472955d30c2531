package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/diaspora-journey-api/internal/application/security"
	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/infrastructure/email"
	"github.com/diaspora-journey-api/internal/pkg/id"
)

func (s *service) AdminList(ctx context.Context, f domain.VerificationFilter) ([]domain.VerificationRequest, string, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, "", fmt.Errorf("unknown status %q: %w", f.Status, domain.ErrBadRequest)
	}
	switch {
	case f.Limit < 1:
		f.Limit = defaultLimit
	case f.Limit > maxLimit:
		f.Limit = maxLimit
	}
	return s.requests.List(ctx, f)
}

func (s *service) Stats(ctx context.Context) (domain.VerificationStats, error) {
	stats := make(domain.VerificationStats, len(domain.AllVerificationStatuses))
	for _, st := range domain.AllVerificationStatuses {
		n, err := s.requests.CountByStatus(ctx, st)
		if err != nil {
			return nil, err
		}
		stats[st] = n
	}
	return stats, nil
}

func (s *service) Review(ctx context.Context, adminID, requestID string, req domain.ReviewRequest, meta domain.RequestMeta) (*domain.VerificationRequest, error) {
	v, err := s.review(ctx, adminID, requestID, req.Action, req.Notes)
	if err != nil {
		return nil, err
	}
	s.events.Record(ctx, security.Event(domain.EventVerificationReviewed, adminID, meta,
		"request_id", requestID, "action", string(req.Action), "status", string(v.Status)))
	return v, nil
}

// BulkReview applies one action to many requests. Each id succeeds or fails on
// its own; duplicates are collapsed and results keep the input order.
func (s *service) BulkReview(ctx context.Context, adminID string, req domain.BulkReviewRequest, meta domain.RequestMeta) []domain.BulkResult {
	seen := make(map[string]bool, len(req.IDs))
	results := make([]domain.BulkResult, 0, len(req.IDs))
	ok := 0
	for _, rid := range req.IDs {
		if seen[rid] {
			continue
		}
		seen[rid] = true
		v, err := s.review(ctx, adminID, rid, req.Action, req.Notes)
		if err != nil {
			results = append(results, domain.BulkResult{ID: rid, Error: err.Error()})
			continue
		}
		ok++
		results = append(results, domain.BulkResult{ID: rid, OK: true, Status: v.Status})
	}
	s.events.Record(ctx, security.Event(domain.EventVerificationReviewed, adminID, meta,
		"action", string(req.Action), "bulk", "true", "requested", fmt.Sprint(len(seen)), "succeeded", fmt.Sprint(ok)))
	return results
}

func (s *service) review(ctx context.Context, adminID, requestID string, action domain.ReviewAction, notes string) (*domain.VerificationRequest, error) {
	to, ok := action.Target()
	if !ok {
		return nil, fmt.Errorf("unknown action %q: %w", action, domain.ErrBadRequest)
	}
	if to == domain.StatusRejected && strings.TrimSpace(notes) == "" {
		return nil, fmt.Errorf("a rejection reason is required: %w", domain.ErrBadRequest)
	}
	v, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	from := v.Status
	if err := domain.CheckTransition(from, to); err != nil {
		return nil, err
	}
	ct, _ := domain.LookupCredentialType(v.CredentialType)

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"reviewer_id":  adminID,
		"reviewed_at":  now,
		"review_notes": notes,
	}
	var expiresAt *time.Time
	switch to {
	case domain.StatusApproved:
		docs, err := s.documents.ListByRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if missing := ct.MissingDocuments(docs); len(missing) > 0 {
			return nil, fmt.Errorf("missing required documents: %s: %w", strings.Join(missing, ", "), domain.ErrConflict)
		}
		if ct.ValidityMonths > 0 {
			t := now.AddDate(0, ct.ValidityMonths, 0)
			expiresAt = &t
			updates["expires_at"] = t
		}
	case domain.StatusRejected:
		updates["rejection_reason"] = notes
	}

	if to == domain.StatusApproved {
		badge := newBadge(v, now, expiresAt)
		if err := s.decisions.Approve(ctx, requestID, from, updates, badge); err != nil {
			return nil, err
		}
	} else if err := s.requests.Transition(ctx, requestID, from, to, updates); err != nil {
		return nil, err
	}
	v.Status = to
	v.ReviewerID = adminID
	v.ReviewedAt = &now
	v.ReviewNotes = notes
	v.UpdatedAt = now
	if to == domain.StatusRejected {
		v.RejectionReason = notes
	}
	if expiresAt != nil {
		v.ExpiresAt = expiresAt
	}
	s.appendAudit(ctx, requestID, adminID, domain.AuditActionFor(to), from, to, notes)
	s.announce(ctx, v)
	return v, nil
}

func newBadge(v *domain.VerificationRequest, now time.Time, expiresAt *time.Time) *domain.VerificationBadge {
	return &domain.VerificationBadge{
		BadgeID:        id.New(),
		UserID:         v.UserID,
		RequestID:      v.RequestID,
		CredentialType: v.CredentialType,
		Title:          v.Title,
		Issuer:         v.Issuer,
		Status:         domain.BadgeApproved,
		IssuedAt:       now,
		ExpiresAt:      expiresAt,
	}
}

// announce tells the owner about a decision: in-app always, email and SMS for
// final outcomes. Delivery failures never undo the transition.
func (s *service) announce(ctx context.Context, v *domain.VerificationRequest) {
	msg := decisionMessage(v)
	if err := s.notifier.Notify(ctx, v.UserID, domain.NotificationVerificationUpdate, v.RequestID, msg); err != nil {
		slog.Warn("verification notification failed", "request_id", v.RequestID, "err", err)
	}
	if v.Status != domain.StatusApproved && v.Status != domain.StatusRejected {
		return
	}
	u, err := s.users.Get(ctx, v.UserID)
	if err != nil {
		slog.Warn("load user for decision email", "user_id", v.UserID, "err", err)
		return
	}
	var m email.Message
	if v.Status == domain.StatusApproved {
		m = s.templates.VerificationApproved(u.Email, u.FullName(), v.Title)
	} else {
		m = s.templates.VerificationRejected(u.Email, u.FullName(), v.Title, v.RejectionReason)
	}
	if err := s.mailer.Send(ctx, m); err != nil {
		slog.Warn("decision email failed", "request_id", v.RequestID, "err", err)
	}
	s.text(ctx, u, msg)
}

func (s *service) text(ctx context.Context, u *domain.User, msg string) {
	if s.sms == nil || u.Phone == nil || !u.PhoneConfirmed {
		return
	}
	if err := s.sms.SendSMS(ctx, *u.Phone, msg); err != nil {
		slog.Warn("decision sms failed", "user_id", u.UserID, "err", err)
	}
}

func decisionMessage(v *domain.VerificationRequest) string {
	switch v.Status {
	case domain.StatusUnderReview:
		return fmt.Sprintf("Your verification for %q is now under review.", v.Title)
	case domain.StatusApproved:
		return fmt.Sprintf("Your verification for %q was approved.", v.Title)
	case domain.StatusRejected:
		return fmt.Sprintf("Your verification for %q was not approved.", v.Title)
	case domain.StatusPending:
		return fmt.Sprintf("Your verification for %q needs more information.", v.Title)
	}
	return fmt.Sprintf("Your verification for %q is now %s.", v.Title, v.Status)
}

func (s *service) RevokeBadge(ctx context.Context, adminID, badgeID, reason string, meta domain.RequestMeta) (*domain.VerificationBadge, error) {
	b, err := s.badges.Get(ctx, badgeID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BadgeApproved {
		return nil, fmt.Errorf("badge is %s: %w", b.Status, domain.ErrConflict)
	}
	now := time.Now().UTC()
	err = s.decisions.Revoke(ctx, badgeID, b.RequestID,
		map[string]interface{}{"revoked_at": now, "revoke_reason": reason},
		map[string]interface{}{"review_notes": reason, "reviewer_id": adminID},
	)
	if err != nil {
		return nil, err
	}
	b.Status = domain.BadgeRevoked
	b.RevokedAt = &now
	b.RevokeReason = reason
	s.appendAudit(ctx, b.RequestID, adminID, domain.AuditRevoked, domain.StatusApproved, domain.StatusRevoked, reason)

	if err := s.notifier.Notify(ctx, b.UserID, domain.NotificationBadgeRevoked, b.BadgeID,
		fmt.Sprintf("Your badge for %q was revoked.", b.Title)); err != nil {
		slog.Warn("revocation notification failed", "badge_id", badgeID, "err", err)
	}
	if u, err := s.users.Get(ctx, b.UserID); err == nil {
		if err := s.mailer.Send(ctx, s.templates.BadgeRevoked(u.Email, u.FullName(), b.Title, reason)); err != nil {
			slog.Warn("revocation email failed", "badge_id", badgeID, "err", err)
		}
	}
	s.events.Record(ctx, security.Event(domain.EventBadgeRevoked, adminID, meta, "badge_id", badgeID, "owner_id", b.UserID))
	return b, nil
}

func (s *service) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	approved, err := s.requests.ListByStatus(ctx, domain.StatusApproved)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, v := range approved {
		if v.ExpiresAt == nil || v.ExpiresAt.After(now) {
			continue
		}
		badgeID, err := s.approvedBadgeID(ctx, v.RequestID)
		if err != nil {
			return expired, err
		}
		err = s.decisions.Expire(ctx, v.RequestID, badgeID)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return expired, err
		}
		expired++
		s.appendAudit(ctx, v.RequestID, systemActor, domain.AuditExpired, domain.StatusApproved, domain.StatusExpired, "")
		if err := s.notifier.Notify(ctx, v.UserID, domain.NotificationBadgeExpired, v.RequestID,
			fmt.Sprintf("Your verification for %q has expired. Submit a new request to renew it.", v.Title)); err != nil {
			slog.Warn("expiry notification failed", "request_id", v.RequestID, "err", err)
		}
	}
	return expired, nil
}

// approvedBadgeID returns the id of the request's badge while it is still
// approved, or "" when there is none to expire.
func (s *service) approvedBadgeID(ctx context.Context, requestID string) (string, error) {
	b, err := s.badges.GetByRequest(ctx, requestID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if b.Status != domain.BadgeApproved {
		return "", nil
	}
	return b.BadgeID, nil
}
