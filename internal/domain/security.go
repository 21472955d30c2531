package domain

import "time"

const (
	EventAccountCreated         = "account_created"
	EventLoginSucceeded         = "login_succeeded"
	EventLoginFailed            = "login_failed"
	EventLogout                 = "logout"
	EventPasswordResetRequested = "password_reset_requested"
	EventPasswordResetCompleted = "password_reset_completed"
	EventPasswordChanged        = "password_changed"
	EventEmailConfirmed         = "email_confirmed"
	EventAccountDisabled        = "account_disabled"
	EventVerificationReviewed   = "verification_reviewed"
	EventBadgeRevoked           = "badge_revoked"
	EventRefreshTokenInvalid    = "refresh_token_invalid"
)

const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// SecurityEvent is an append-only record of an authentication or privileged action.
type SecurityEvent struct {
	EventID   string            `json:"id" dynamodbav:"event_id"`
	UserID    string            `json:"user_id,omitempty" dynamodbav:"user_id,omitempty"`
	Type      string            `json:"type" dynamodbav:"event_type"`
	Severity  string            `json:"severity" dynamodbav:"severity"`
	IP        string            `json:"ip,omitempty" dynamodbav:"ip"`
	UserAgent string            `json:"user_agent,omitempty" dynamodbav:"user_agent"`
	Metadata  map[string]string `json:"metadata,omitempty" dynamodbav:"metadata"`
	CreatedAt time.Time         `json:"created_at" dynamodbav:"created_at"`
}

// SecurityEventFilter narrows the admin listing. Type and UserID may be combined.
type SecurityEventFilter struct {
	Type   string
	UserID string
	Limit  int
	Cursor string
}

// RequestMeta carries client details from the transport layer into services.
type RequestMeta struct {
	IP        string
	UserAgent string
}
