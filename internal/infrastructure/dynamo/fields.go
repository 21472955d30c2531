package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldDeletedAt        = "deleted_at"
	fieldRead             = "read"
	fieldStatus           = "status"
	fieldUpdatedAt        = "updated_at"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldRevokedAt        = "revoked_at"
	fieldRevokeReason     = "revoke_reason"
)

// GSI names shared by Bootstrap and the repos.
const (
	indexUsername           = "username-index"
	indexEmail              = "email-index"
	indexEnable             = "enable-index"
	indexUserID             = "user_id-index"
	indexRefreshToken       = "refresh_token-index"
	indexUserCreated        = "user_id-created_at-index"
	indexUserSubmitted      = "user_id-submitted_at-index"
	indexStatusSubmitted    = "status-submitted_at-index"
	indexRequestID          = "request_id-index"
	indexEventTypeCreatedAt = "event_type-created_at-index"
)
