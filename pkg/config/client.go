package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig configures a Secrets Manager client and the optional
// infrastructure around it. Empty URLs disable the matching component.
type ClientConfig struct {
	ServiceURL string // e.g. https://<instance>.<region>.secrets-manager.appdomain.cloud
	Instance   string // credentials are resolved from AWS Secrets Manager when set
	Generation string // "current" or "legacy"

	APIKey      string
	BearerToken string
	IAMURL      string

	DisableRetries bool
	RetryMax       int
	HTTPTimeout    time.Duration
	RateRPS        float64
	RateBurst      int
	DefaultHeaders map[string]string

	Env       string // e.g. "dev", "uat", "prod"
	LogLevel  string
	AWSRegion string

	CredentialCacheTTL   time.Duration
	TokenRefreshInterval time.Duration

	RedisAddr string // shared IAM token store
	RedisDB   int

	DatabaseURL  string // audit journal
	NATSURL      string
	AMQPURL      string
	AMQPExchange string
	EventSubject string // lifecycle event subject prefix
}

// Load reads the client configuration from environment variables and a
// .env file if present.
func Load() *ClientConfig {
	_ = godotenv.Load()

	return &ClientConfig{
		ServiceURL: GetEnv("SM_SERVICE_URL", ""),
		Instance:   GetEnv("SM_INSTANCE", ""),
		Generation: GetEnv("SM_GENERATION", "current"),

		APIKey:      GetEnv("SM_API_KEY", ""),
		BearerToken: GetEnv("SM_BEARER_TOKEN", ""),
		IAMURL:      GetEnv("SM_IAM_URL", "https://iam.cloud.ibm.com"),

		DisableRetries: GetEnvBool("SM_DISABLE_RETRIES", false),
		RetryMax:       GetEnvInt("SM_RETRY_MAX", 3),
		HTTPTimeout:    GetEnvDuration("SM_HTTP_TIMEOUT", 30*time.Second),
		RateRPS:        GetEnvFloat("SM_RATE_RPS", 20),
		RateBurst:      GetEnvInt("SM_RATE_BURST", 40),
		DefaultHeaders: GetEnvMap("SM_DEFAULT_HEADERS"),

		Env:       GetEnv("ENV", "dev"),
		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		AWSRegion: GetEnv("AWS_REGION", "us-east-2"),

		CredentialCacheTTL:   GetEnvDuration("SM_CREDENTIAL_CACHE_TTL", 15*time.Minute),
		TokenRefreshInterval: GetEnvDuration("SM_TOKEN_REFRESH_INTERVAL", 10*time.Minute),

		RedisAddr: GetEnv("REDIS_ADDR", ""),
		RedisDB:   GetEnvInt("REDIS_DB", 0),

		DatabaseURL:  GetEnv("DATABASE_URL", ""),
		NATSURL:      GetEnv("NATS_URL", ""),
		AMQPURL:      GetEnv("AMQP_URL", ""),
		AMQPExchange: GetEnv("AMQP_EXCHANGE", "secrets.events"),
		EventSubject: GetEnv("EVENT_SUBJECT", "evt.secrets"),
	}
}

// Validate reports configuration that cannot produce a working client.
func (c *ClientConfig) Validate() error {
	var errs []error
	if c.ServiceURL == "" && c.Instance == "" {
		errs = append(errs, errors.New("SM_SERVICE_URL or SM_INSTANCE is required"))
	}
	if c.APIKey != "" && c.BearerToken != "" {
		errs = append(errs, errors.New("SM_API_KEY and SM_BEARER_TOKEN are mutually exclusive"))
	}
	if c.RetryMax < 0 {
		errs = append(errs, errors.New("SM_RETRY_MAX must not be negative"))
	}
	return errors.Join(errs...)
}
