package verification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/infrastructure/email"
	"github.com/diaspora-journey-api/internal/pkg/id"
)

const (
	systemActor  = "system"
	defaultLimit = 50
	maxLimit     = 200
)

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// Upload is a document received from the transport layer. Size must be the
// exact body length.
type Upload struct {
	Kind        string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service interface {
	ListCredentialTypes() []domain.CredentialType
	Submit(ctx context.Context, userID string, req domain.SubmitVerificationRequest) (*domain.VerificationRequest, error)
	AttachDocument(ctx context.Context, userID, requestID string, up Upload) (*domain.VerificationDocument, error)
	ListMine(ctx context.Context, userID string) ([]domain.VerificationRequest, error)
	Get(ctx context.Context, userID, requestID string, isAdmin bool) (*domain.VerificationRequest, error)
	DocumentURL(ctx context.Context, userID, requestID, documentID string, isAdmin bool) (string, error)
	ListBadges(ctx context.Context, userID string) ([]domain.VerificationBadge, error)

	AdminList(ctx context.Context, f domain.VerificationFilter) ([]domain.VerificationRequest, string, error)
	Stats(ctx context.Context) (domain.VerificationStats, error)
	Review(ctx context.Context, adminID, requestID string, req domain.ReviewRequest, meta domain.RequestMeta) (*domain.VerificationRequest, error)
	BulkReview(ctx context.Context, adminID string, req domain.BulkReviewRequest, meta domain.RequestMeta) []domain.BulkResult
	RevokeBadge(ctx context.Context, adminID, badgeID, reason string, meta domain.RequestMeta) (*domain.VerificationBadge, error)
	AuditTrail(ctx context.Context, requestID string) ([]domain.AuditEntry, error)
	// ExpireDue moves approved requests and their badges past expiry to expired.
	// Returns how many requests were expired.
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

type requestStore interface {
	Create(ctx context.Context, v *domain.VerificationRequest) error
	Get(ctx context.Context, requestID string) (*domain.VerificationRequest, error)
	ListByUser(ctx context.Context, userID string) ([]domain.VerificationRequest, error)
	ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]domain.VerificationRequest, error)
	List(ctx context.Context, f domain.VerificationFilter) ([]domain.VerificationRequest, string, error)
	CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error)
	Transition(ctx context.Context, requestID string, from, to domain.VerificationStatus, updates map[string]interface{}) error
}

type documentStore interface {
	Put(ctx context.Context, d *domain.VerificationDocument) error
	Get(ctx context.Context, requestID, documentID string) (*domain.VerificationDocument, error)
	ListByRequest(ctx context.Context, requestID string) ([]domain.VerificationDocument, error)
}

type auditStore interface {
	Append(ctx context.Context, e *domain.AuditEntry) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.AuditEntry, error)
}

type badgeStore interface {
	Get(ctx context.Context, badgeID string) (*domain.VerificationBadge, error)
	ListByUser(ctx context.Context, userID string) ([]domain.VerificationBadge, error)
	GetByRequest(ctx context.Context, requestID string) (*domain.VerificationBadge, error)
}

// decisionStore writes a request and its badge together; either both change
// or neither does.
type decisionStore interface {
	Approve(ctx context.Context, requestID string, from domain.VerificationStatus, updates map[string]interface{}, b *domain.VerificationBadge) error
	Revoke(ctx context.Context, badgeID, requestID string, badgeUpdates, requestUpdates map[string]interface{}) error
	Expire(ctx context.Context, requestID, badgeID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type notifier interface {
	Notify(ctx context.Context, userID, kind, referenceID, message string) error
}

type mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type eventRecorder interface {
	Record(ctx context.Context, e domain.SecurityEvent)
}

type service struct {
	requests  requestStore
	documents documentStore
	audit     auditStore
	badges    badgeStore
	decisions decisionStore
	users     userStore
	objects   objectStore
	notifier  notifier
	mailer    mailer
	sms       smsSender
	templates email.Templates
	events    eventRecorder
	urlTTL    time.Duration
	maxBytes  int64
}

type ServiceDeps struct {
	RequestRepo  requestStore
	DocumentRepo documentStore
	AuditRepo    auditStore
	BadgeRepo    badgeStore
	Decisions    decisionStore
	UserRepo     userStore
	Objects      objectStore
	Notifier     notifier
	Mailer       mailer
	SMS          smsSender // optional
	Templates    email.Templates
	Events       eventRecorder
	URLTTL       time.Duration
	MaxBytes     int64
}

func NewService(deps ServiceDeps) Service {
	return &service{
		requests:  deps.RequestRepo,
		documents: deps.DocumentRepo,
		audit:     deps.AuditRepo,
		badges:    deps.BadgeRepo,
		decisions: deps.Decisions,
		users:     deps.UserRepo,
		objects:   deps.Objects,
		notifier:  deps.Notifier,
		mailer:    deps.Mailer,
		sms:       deps.SMS,
		templates: deps.Templates,
		events:    deps.Events,
		urlTTL:    deps.URLTTL,
		maxBytes:  deps.MaxBytes,
	}
}

func (s *service) ListCredentialTypes() []domain.CredentialType {
	return domain.CredentialTypes()
}

func (s *service) Submit(ctx context.Context, userID string, req domain.SubmitVerificationRequest) (*domain.VerificationRequest, error) {
	if _, ok := domain.LookupCredentialType(req.CredentialType); !ok {
		return nil, fmt.Errorf("unknown credential type %q: %w", req.CredentialType, domain.ErrBadRequest)
	}
	if req.StartDate != "" && req.EndDate != "" && req.EndDate < req.StartDate {
		return nil, fmt.Errorf("end_date before start_date: %w", domain.ErrBadRequest)
	}
	existing, err := s.requests.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.Status.Open() && e.CredentialType == req.CredentialType && strings.EqualFold(e.Title, req.Title) {
			return nil, fmt.Errorf("an open request for %q already exists: %w", req.Title, domain.ErrConflict)
		}
	}

	now := time.Now().UTC()
	v := &domain.VerificationRequest{
		RequestID:      id.New(),
		UserID:         userID,
		CredentialType: req.CredentialType,
		Title:          req.Title,
		Issuer:         req.Issuer,
		Description:    req.Description,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Status:         domain.StatusPending,
		SubmittedAt:    now,
		UpdatedAt:      now,
	}
	if err := s.requests.Create(ctx, v); err != nil {
		return nil, err
	}
	s.appendAudit(ctx, v.RequestID, userID, domain.AuditSubmitted, "", domain.StatusPending, "")
	return v, nil
}

func (s *service) AttachDocument(ctx context.Context, userID, requestID string, up Upload) (*domain.VerificationDocument, error) {
	v, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if v.UserID != userID {
		return nil, fmt.Errorf("verification request not found: %w", domain.ErrNotFound)
	}
	if v.Status != domain.StatusPending {
		return nil, fmt.Errorf("documents can only be attached while pending: %w", domain.ErrConflict)
	}
	ct, _ := domain.LookupCredentialType(v.CredentialType)
	if !acceptsKind(ct, up.Kind) {
		return nil, fmt.Errorf("document kind %q not accepted for %s: %w", up.Kind, ct.Code, domain.ErrBadRequest)
	}
	if !allowedContentTypes[up.ContentType] {
		return nil, fmt.Errorf("content type %q not allowed: %w", up.ContentType, domain.ErrBadRequest)
	}
	if up.Size <= 0 || (s.maxBytes > 0 && up.Size > s.maxBytes) {
		return nil, fmt.Errorf("document must be between 1 and %d bytes: %w", s.maxBytes, domain.ErrBadRequest)
	}

	docID := id.New()
	key := objectKey(userID, requestID, docID, up.FileName)
	h := sha256.New()
	if err := s.objects.Upload(ctx, key, io.TeeReader(up.Body, h), up.Size, up.ContentType); err != nil {
		return nil, err
	}
	doc := &domain.VerificationDocument{
		DocumentID:  docID,
		RequestID:   requestID,
		UserID:      userID,
		Kind:        up.Kind,
		FileName:    path.Base(up.FileName),
		ContentType: up.ContentType,
		Size:        up.Size,
		Hash:        hex.EncodeToString(h.Sum(nil)),
		Object:      key,
		UploadedAt:  time.Now().UTC(),
	}
	if err := s.documents.Put(ctx, doc); err != nil {
		if derr := s.objects.Delete(ctx, key); derr != nil {
			slog.Warn("orphaned document object", "key", key, "err", derr)
		}
		return nil, err
	}
	s.appendAudit(ctx, requestID, userID, domain.AuditDocumentAttached, "", "", up.Kind)
	return doc, nil
}

func (s *service) ListMine(ctx context.Context, userID string) ([]domain.VerificationRequest, error) {
	return s.requests.ListByUser(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, requestID string, isAdmin bool) (*domain.VerificationRequest, error) {
	v, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && v.UserID != userID {
		return nil, fmt.Errorf("verification request not found: %w", domain.ErrNotFound)
	}
	docs, err := s.documents.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	v.Documents = docs
	return v, nil
}

func (s *service) DocumentURL(ctx context.Context, userID, requestID, documentID string, isAdmin bool) (string, error) {
	doc, err := s.documents.Get(ctx, requestID, documentID)
	if err != nil {
		return "", err
	}
	if !isAdmin && doc.UserID != userID {
		return "", fmt.Errorf("document not found: %w", domain.ErrNotFound)
	}
	return s.objects.PresignedURL(ctx, doc.Object, s.urlTTL)
}

func (s *service) ListBadges(ctx context.Context, userID string) ([]domain.VerificationBadge, error) {
	return s.badges.ListByUser(ctx, userID)
}

func (s *service) AuditTrail(ctx context.Context, requestID string) ([]domain.AuditEntry, error) {
	if _, err := s.requests.Get(ctx, requestID); err != nil {
		return nil, err
	}
	return s.audit.ListByRequest(ctx, requestID)
}

// appendAudit writes an audit entry. The state change it describes has already
// been committed, so a failure here is logged rather than returned.
func (s *service) appendAudit(ctx context.Context, requestID, actorID, action string, from, to domain.VerificationStatus, notes string) {
	e := &domain.AuditEntry{
		RequestID:  requestID,
		EntryID:    id.New(),
		ActorID:    actorID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		Notes:      notes,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Append(ctx, e); err != nil {
		slog.Error("append audit entry", "request_id", requestID, "action", action, "err", err)
	}
}

func acceptsKind(ct domain.CredentialType, kind string) bool {
	if kind == "supporting" {
		return true
	}
	for _, k := range ct.RequiredDocuments {
		if k == kind {
			return true
		}
	}
	return false
}

func objectKey(userID, requestID, docID, fileName string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, path.Base(fileName))
	return fmt.Sprintf("verifications/%s/%s/%s-%s", userID, requestID, docID, name)
}
