package domain

import "time"

const (
	NotificationVerificationUpdate = "verification_update"
	NotificationBadgeRevoked       = "badge_revoked"
	NotificationBadgeExpired       = "badge_expired"
)

type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	Kind           string    `json:"kind" dynamodbav:"kind"`
	ReferenceID    string    `json:"reference_id,omitempty" dynamodbav:"reference_id"`
	Message        string    `json:"message" dynamodbav:"message"`
	Read           int       `json:"read" dynamodbav:"read"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}
