package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string
	AppName string
	AppURL  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables
	S3BucketName string

	JWTPrivateKeyPath  string
	JWTPublicKeyPath   string
	JWTExpiry          time.Duration
	RefreshTokenExpiry time.Duration

	EmailProvider       string // "smtp" | "resend" | "log"
	EmailFrom           string
	EmailMaxAttempts    int
	EmailInitialBackoff time.Duration
	ResendAPIKey        string
	SMTPHost            string
	SMTPPort            string
	SMTPUsername        string
	SMTPPassword        string

	SNSRegion string

	AllowedOrigins     []string // CORS allowed origins
	TrustedProxies     []string // IPs or CIDRs whose forwarding headers are honoured
	BadgeSweepInterval time.Duration
	DocumentURLTTL     time.Duration
	MaxDocumentBytes   int64
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users                string
	Sessions             string
	OneTimeCodes         string
	Notifications        string
	VerificationRequests string
	VerificationDocs     string
	VerificationAudit    string
	Badges               string
	JourneyStages        string
	StageDependencies    string
	JourneyProgress      string
	SecurityEvents       string
}

// IsDev reports whether the process runs outside production.
func (c *Config) IsDev() bool { return c.AppEnv != "production" }

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),
		AppName: getEnv("APP_NAME", "Diaspora Build"),
		AppURL:  getEnv("APP_URL", "http://localhost:3000"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Users:                getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:             getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			OneTimeCodes:         getEnv("DYNAMO_TABLE_ONE_TIME_CODES", "one_time_codes"),
			Notifications:        getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			VerificationRequests: getEnv("DYNAMO_TABLE_VERIFICATION_REQUESTS", "verification_requests"),
			VerificationDocs:     getEnv("DYNAMO_TABLE_VERIFICATION_DOCUMENTS", "verification_documents"),
			VerificationAudit:    getEnv("DYNAMO_TABLE_VERIFICATION_AUDIT", "verification_audit"),
			Badges:               getEnv("DYNAMO_TABLE_BADGES", "verification_badges"),
			JourneyStages:        getEnv("DYNAMO_TABLE_JOURNEY_STAGES", "journey_stages"),
			StageDependencies:    getEnv("DYNAMO_TABLE_STAGE_DEPENDENCIES", "stage_dependencies"),
			JourneyProgress:      getEnv("DYNAMO_TABLE_JOURNEY_PROGRESS", "user_journey_progress"),
			SecurityEvents:       getEnv("DYNAMO_TABLE_SECURITY_EVENTS", "security_events"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "verification-documents"),

		JWTPrivateKeyPath:  getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:   getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:          time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		RefreshTokenExpiry: time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30)) * 24 * time.Hour,

		EmailProvider:       getEnv("EMAIL_PROVIDER", "log"),
		EmailFrom:           getEnv("EMAIL_FROM", "noreply@example.com"),
		EmailMaxAttempts:    getEnvInt("EMAIL_MAX_ATTEMPTS", 3),
		EmailInitialBackoff: getEnvDuration("EMAIL_INITIAL_BACKOFF", 500*time.Millisecond),
		ResendAPIKey:        getEnv("RESEND_API_KEY", ""),
		SMTPHost:            getEnv("SMTP_HOST", "localhost"),
		SMTPPort:            getEnv("SMTP_PORT", "1025"),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		AllowedOrigins:     strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),
		BadgeSweepInterval: getEnvDuration("BADGE_SWEEP_INTERVAL", time.Hour),
		DocumentURLTTL:     getEnvDuration("DOCUMENT_URL_TTL", 15*time.Minute),
		MaxDocumentBytes:   int64(getEnvInt("MAX_DOCUMENT_BYTES", 10<<20)),
	}
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
