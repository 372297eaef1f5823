package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	aws_pkg "payment-gateway/pkg/aws"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the payment gateway.
type Config struct {
	Port string
	Env  string

	StripeSecretKey  string
	StripeWebhookKey string
	StripeAPIVersion string // pinned for ephemeral keys handed to mobile/web clients

	IdentityServiceURL       string
	IdentityProfilePath      string
	IdentityTimeout          time.Duration
	BackendPaymentStatusPath string

	PaymentSNSTopicARN string
	AWSUseSecrets      bool
	CloudWatchEnabled  bool
	CloudWatchLogGroup string
	CloudWatchNS       string

	AllowedOrigins     []string
	RateLimitPerMinute int
	RateLimitBurst     int
	RequestTimeout     time.Duration
}

const (
	secretStripeKey     = "payment-gateway/STRIPE_SECRET_KEY"
	secretStripeWebhook = "payment-gateway/STRIPE_WEBHOOK_SECRET"
)

var defaultOrigins = "http://localhost:3000,http://localhost:8080"

// LoadConfig reads configuration from the environment (and a local .env when
// present).
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                     getEnv("PORT", "4242"),
		Env:                      getEnv("ENV", "development"),
		StripeSecretKey:          os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookKey:         os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeAPIVersion:         getEnv("STRIPE_API_VERSION", "2020-08-27"),
		IdentityServiceURL:       strings.TrimSuffix(getEnv("IDENTITY_SERVICE_URL", "http://localhost:8000"), "/"),
		IdentityProfilePath:      getEnv("IDENTITY_PROFILE_PATH", "/api/user"),
		BackendPaymentStatusPath: os.Getenv("BACKEND_PAYMENT_STATUS_PATH"),
		PaymentSNSTopicARN:       os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
		AWSUseSecrets:            os.Getenv("AWS_USE_SECRETS") == "true",
		CloudWatchEnabled:        os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchLogGroup:       os.Getenv("CLOUDWATCH_LOG_GROUP"),
		CloudWatchNS:             getEnv("CLOUDWATCH_NAMESPACE", "PaymentGateway"),
		AllowedOrigins:           splitList(getEnv("ALLOWED_ORIGINS", defaultOrigins)),
	}

	var err error
	if cfg.IdentityTimeout, err = getDuration("IDENTITY_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 50); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplySecrets overrides the Stripe credentials with Secrets Manager values
// when they exist.
func (c *Config) ApplySecrets(ctx context.Context, sm aws_pkg.SecretGetter) error {
	if v, err := sm.GetSecret(ctx, secretStripeKey); err != nil {
		return err
	} else if v != "" {
		c.StripeSecretKey = v
	}
	if v, err := sm.GetSecret(ctx, secretStripeWebhook); err != nil {
		return err
	} else if v != "" {
		c.StripeWebhookKey = v
	}
	return nil
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var missing []string
	if c.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.StripeWebhookKey == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
