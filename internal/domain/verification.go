package domain

import (
	"fmt"
	"time"
)

type VerificationStatus string

const (
	StatusPending     VerificationStatus = "pending"
	StatusUnderReview VerificationStatus = "under_review"
	StatusApproved    VerificationStatus = "approved"
	StatusRejected    VerificationStatus = "rejected"
	StatusExpired     VerificationStatus = "expired"
	StatusRevoked     VerificationStatus = "revoked"
)

// AllVerificationStatuses lists every status in workflow order.
var AllVerificationStatuses = []VerificationStatus{
	StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusExpired, StatusRevoked,
}

var transitions = map[VerificationStatus][]VerificationStatus{
	StatusPending:     {StatusUnderReview, StatusApproved, StatusRejected},
	StatusUnderReview: {StatusApproved, StatusRejected, StatusPending},
	StatusApproved:    {StatusExpired, StatusRevoked},
}

// Valid reports whether s is a known status.
func (s VerificationStatus) Valid() bool {
	for _, v := range AllVerificationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Open reports whether a request in this status still awaits a decision.
func (s VerificationStatus) Open() bool {
	return s == StatusPending || s == StatusUnderReview
}

// CanTransition reports whether from -> to is a legal workflow step.
func CanTransition(from, to VerificationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition wrapped with both statuses when from -> to is illegal.
func CheckTransition(from, to VerificationStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}
	return nil
}

type ReviewAction string

const (
	ActionStartReview ReviewAction = "start_review"
	ActionApprove     ReviewAction = "approve"
	ActionReject      ReviewAction = "reject"
	ActionReturn      ReviewAction = "return"
)

// Target returns the status an action moves a request to.
func (a ReviewAction) Target() (VerificationStatus, bool) {
	switch a {
	case ActionStartReview:
		return StatusUnderReview, true
	case ActionApprove:
		return StatusApproved, true
	case ActionReject:
		return StatusRejected, true
	case ActionReturn:
		return StatusPending, true
	}
	return "", false
}

type VerificationRequest struct {
	RequestID       string                 `json:"id" dynamodbav:"request_id"`
	UserID          string                 `json:"user_id" dynamodbav:"user_id"`
	CredentialType  string                 `json:"credential_type" dynamodbav:"credential_type"`
	Title           string                 `json:"title" dynamodbav:"title"`
	Issuer          string                 `json:"issuer" dynamodbav:"issuer"`
	Description     string                 `json:"description,omitempty" dynamodbav:"description"`
	StartDate       string                 `json:"start_date,omitempty" dynamodbav:"start_date"`
	EndDate         string                 `json:"end_date,omitempty" dynamodbav:"end_date"`
	Status          VerificationStatus     `json:"status" dynamodbav:"status"`
	ReviewNotes     string                 `json:"review_notes,omitempty" dynamodbav:"review_notes"`
	RejectionReason string                 `json:"rejection_reason,omitempty" dynamodbav:"rejection_reason"`
	ReviewerID      string                 `json:"reviewer_id,omitempty" dynamodbav:"reviewer_id"`
	SubmittedAt     time.Time              `json:"submitted_at" dynamodbav:"submitted_at"`
	ReviewedAt      *time.Time             `json:"reviewed_at,omitempty" dynamodbav:"reviewed_at"`
	ExpiresAt       *time.Time             `json:"expires_at,omitempty" dynamodbav:"expires_at"`
	UpdatedAt       time.Time              `json:"updated_at" dynamodbav:"updated_at"`
	Documents       []VerificationDocument `json:"documents,omitempty" dynamodbav:"-"`
}

type SubmitVerificationRequest struct {
	CredentialType string `json:"credential_type" validate:"required,oneof=education employment certification skills"`
	Title          string `json:"title" validate:"required,max=160,singleline"`
	Issuer         string `json:"issuer" validate:"required,max=160,singleline"`
	Description    string `json:"description" validate:"max=2000"`
	StartDate      string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type ReviewRequest struct {
	Action ReviewAction `json:"action" validate:"required,oneof=start_review approve reject return"`
	Notes  string       `json:"notes" validate:"max=2000"`
}

type BulkReviewRequest struct {
	IDs    []string     `json:"ids" validate:"required,min=1,max=100,dive,required"`
	Action ReviewAction `json:"action" validate:"required,oneof=start_review approve reject return"`
	Notes  string       `json:"notes" validate:"max=2000"`
}

// BulkResult is the per-id outcome of a bulk review.
type BulkResult struct {
	ID     string             `json:"id"`
	OK     bool               `json:"ok"`
	Status VerificationStatus `json:"status,omitempty"`
	Error  string             `json:"error,omitempty"`
}

type RevokeBadgeRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// VerificationFilter narrows the admin listing.
type VerificationFilter struct {
	Status         VerificationStatus
	CredentialType string
	UserID         string
	Limit          int
	Cursor         string
}

type VerificationDocument struct {
	DocumentID  string    `json:"id" dynamodbav:"document_id"`
	RequestID   string    `json:"request_id" dynamodbav:"request_id"`
	UserID      string    `json:"user_id" dynamodbav:"user_id"`
	Kind        string    `json:"kind" dynamodbav:"kind"`
	FileName    string    `json:"file_name" dynamodbav:"file_name"`
	ContentType string    `json:"content_type" dynamodbav:"content_type"`
	Size        int64     `json:"size" dynamodbav:"size"`
	Hash        string    `json:"hash" dynamodbav:"hash"`
	Object      string    `json:"-" dynamodbav:"object"`
	UploadedAt  time.Time `json:"uploaded_at" dynamodbav:"uploaded_at"`
}

type BadgeStatus string

const (
	BadgeApproved BadgeStatus = "approved"
	BadgeExpired  BadgeStatus = "expired"
	BadgeRevoked  BadgeStatus = "revoked"
)

type VerificationBadge struct {
	BadgeID        string      `json:"id" dynamodbav:"badge_id"`
	UserID         string      `json:"user_id" dynamodbav:"user_id"`
	RequestID      string      `json:"request_id" dynamodbav:"request_id"`
	CredentialType string      `json:"credential_type" dynamodbav:"credential_type"`
	Title          string      `json:"title" dynamodbav:"title"`
	Issuer         string      `json:"issuer" dynamodbav:"issuer"`
	Status         BadgeStatus `json:"status" dynamodbav:"status"`
	IssuedAt       time.Time   `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt      *time.Time  `json:"expires_at,omitempty" dynamodbav:"expires_at"`
	RevokedAt      *time.Time  `json:"revoked_at,omitempty" dynamodbav:"revoked_at"`
	RevokeReason   string      `json:"revoke_reason,omitempty" dynamodbav:"revoke_reason"`
}

const (
	AuditSubmitted        = "submitted"
	AuditDocumentAttached = "document_attached"
	AuditReviewStarted    = "review_started"
	AuditApproved         = "approved"
	AuditRejected         = "rejected"
	AuditReturned         = "returned"
	AuditRevoked          = "revoked"
	AuditExpired          = "expired"
)

// AuditActionFor names the audit entry written for a transition into to.
func AuditActionFor(to VerificationStatus) string {
	switch to {
	case StatusUnderReview:
		return AuditReviewStarted
	case StatusApproved:
		return AuditApproved
	case StatusRejected:
		return AuditRejected
	case StatusPending:
		return AuditReturned
	case StatusRevoked:
		return AuditRevoked
	case StatusExpired:
		return AuditExpired
	}
	return string(to)
}

// AuditEntry is one immutable line of a request's review history.
// PK: request_id, SK: entry_id (ULID, so entries sort by time).
type AuditEntry struct {
	RequestID  string             `json:"request_id" dynamodbav:"request_id"`
	EntryID    string             `json:"id" dynamodbav:"entry_id"`
	ActorID    string             `json:"actor_id" dynamodbav:"actor_id"`
	Action     string             `json:"action" dynamodbav:"action"`
	FromStatus VerificationStatus `json:"from_status,omitempty" dynamodbav:"from_status"`
	ToStatus   VerificationStatus `json:"to_status,omitempty" dynamodbav:"to_status"`
	Notes      string             `json:"notes,omitempty" dynamodbav:"notes"`
	CreatedAt  time.Time          `json:"created_at" dynamodbav:"created_at"`
}

// VerificationStats counts requests per status.
type VerificationStats map[VerificationStatus]int
