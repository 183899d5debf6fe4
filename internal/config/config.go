package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	WebhookSecret     string `env:"WEBHOOK_SECRET,required"`
	PublicWebhookBase string `env:"PUBLIC_WEBHOOK_BASE,required"`

	PlatformAPIBase        string `env:"PLATFORM_API_BASE,required"`
	PlatformBotToken       string `env:"PLATFORM_BOT_TOKEN,required"`
	PlatformAccountAPIBase string `env:"PLATFORM_ACCOUNT_API_BASE,required"`
	PlatformAccountToken   string `env:"PLATFORM_ACCOUNT_TOKEN,required"`

	CoreAPIBase        string `env:"CORE_API_BASE,required"`
	CoreSvcUsername    string `env:"CORE_SVC_USERNAME,required"`
	CoreSvcPassword    string `env:"CORE_SVC_PASSWORD,required"`
	CoreMaxAuthRetries int    `env:"CORE_MAX_AUTH_RETRIES" envDefault:"3"`

	HashKey string `env:"HASH_KEY,required"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// OperatorToken enables the orphan reconciliation endpoints; they stay
	// disabled when it is empty.
	OperatorToken string `env:"OPERATOR_TOKEN"`

	WebhookRateLimitPerMin   int  `env:"WEBHOOK_RATE_LIMIT_PER_MIN" envDefault:"120"`
	CleanupOnRegisterFailure bool `env:"CLEANUP_ON_REGISTER_FAILURE" envDefault:"false"`
	OrphanRetentionDays      int  `env:"ORPHAN_RETENTION_DAYS" envDefault:"30"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) OrphanRetention() time.Duration {
	return time.Duration(c.OrphanRetentionDays) * 24 * time.Hour
}

// WebhookPath is the secret-bearing path the platform posts updates to.
func (c *Config) WebhookPath() string {
	return "/webhook/" + c.WebhookSecret
}

func (c *Config) WebhookURL() string {
	return strings.TrimSuffix(c.PublicWebhookBase, "/") + c.WebhookPath()
}

func (c *Config) Validate(isProduction bool) error {
	if c.CoreMaxAuthRetries < 0 {
		return fmt.Errorf("CORE_MAX_AUTH_RETRIES must not be negative")
	}

	if isProduction {
		if err := validateSecret("WEBHOOK_SECRET", c.WebhookSecret); err != nil {
			return err
		}
		if err := validateSecret("HASH_KEY", c.HashKey); err != nil {
			return err
		}
		if !strings.HasPrefix(c.PublicWebhookBase, "https://") {
			return fmt.Errorf("PUBLIC_WEBHOOK_BASE must be https in production")
		}
		if c.OperatorToken != "" {
			if err := validateSecret("OPERATOR_TOKEN", c.OperatorToken); err != nil {
				return err
			}
		}

		if c.DatabaseURL == "" {
			log.Warn().Msg("DATABASE_URL is empty in production: orphaned-pair ledger disabled, failed registrations will only be logged")
		}
		if c.RedisURL == "" {
			log.Warn().Msg("REDIS_URL is empty in production: webhook rate limiting disabled")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	// Developer convenience only; a missing .env file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
