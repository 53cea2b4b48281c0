package config

import (
	"time"

	pkgconfig "github.com/Checker-Finance/secrets-manager-sdk/pkg/config"
)

// Config holds the runtime configuration for sm-gateway.
type Config struct {
	ServiceName      string
	Port             int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int
	ShutdownTimeout  time.Duration

	// Client configures the upstream Secrets Manager connection.
	Client *pkgconfig.ClientConfig
}

// Load loads configuration from environment variables and optional .env file.
func Load() *Config {
	client := pkgconfig.Load()

	return &Config{
		ServiceName:      pkgconfig.GetEnv("SERVICE_NAME", "sm-gateway"),
		Port:             pkgconfig.GetEnvInt("GATEWAY_PORT", 9020),
		HTTPReadTimeout:  pkgconfig.GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: pkgconfig.GetEnvDuration("HTTP_WRITE_TIMEOUT", 35*time.Second),
		HTTPIdleTimeout:  pkgconfig.GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:    pkgconfig.GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),
		ShutdownTimeout:  pkgconfig.GetEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Client:           client,
	}
}
