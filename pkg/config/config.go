package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// BackendConfig locates the identity backend.
type BackendConfig struct {
	BaseURL     string        `env:"AUTHFLOW_BASE_URL" env-default:"http://localhost:4556"`
	HTTPTimeout time.Duration `env:"AUTHFLOW_HTTP_TIMEOUT" env-default:"30s"`
}

// TokenConfig controls where tokens are persisted and how eagerly the
// refresher runs.
type TokenConfig struct {
	// Dir is where the token file lives. Empty selects the in-memory store.
	Dir         string        `env:"AUTHFLOW_TOKEN_DIR" env-default:""`
	RefreshSkew time.Duration `env:"AUTHFLOW_REFRESH_SKEW" env-default:"10s"`
}

// SMTPConfig configures outbound email for verification codes. Host empty
// disables delivery.
type SMTPConfig struct {
	Host     string `env:"AUTHFLOW_SMTP_HOST" env-default:""`
	Port     int    `env:"AUTHFLOW_SMTP_PORT" env-default:"587"`
	Username string `env:"AUTHFLOW_SMTP_USERNAME" env-default:""`
	Password string `env:"AUTHFLOW_SMTP_PASSWORD" env-default:""`
	From     string `env:"AUTHFLOW_SMTP_FROM" env-default:"noreply@example.com"`
}

// Config is the full client configuration, read from the environment.
type Config struct {
	Backend BackendConfig
	Token   TokenConfig
	SMTP    SMTPConfig
}

// Load reads the configuration from environment variables, applying defaults
// for anything unset.
func Load() (*Config, error) {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	return &config, nil
}
