package domain

const (
	CodePurposeOTP   = "otp"
	CodePurposeEmail = "email"
)

// MaxCodeAttempts is how many wrong guesses burn a one-time code.
const MaxCodeAttempts = 5

// OneTimeCode stores password-recovery OTPs and email confirmation tokens.
// PK: user_id, SK: purpose.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OneTimeCode struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Purpose   string `json:"purpose" dynamodbav:"purpose"`
	Code      string `json:"-" dynamodbav:"code"`
	Attempts  int    `json:"-" dynamodbav:"attempts"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
}
