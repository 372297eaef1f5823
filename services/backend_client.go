package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"payment-gateway/common/logger"
	"payment-gateway/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// IdentityResolver turns an optional storefront bearer token into an
// identity. It never fails: every problem degrades to a guest checkout.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) models.IdentityResult
}

// PaymentStatusNotifier tells the backend that a payment changed state.
type PaymentStatusNotifier interface {
	NotifyPaymentStatus(ctx context.Context, n models.PaymentStatusNotification) error
}

// BackendClient talks to the backend authentication service (Laravel).
type BackendClient struct {
	http        *resty.Client
	profilePath string
	statusPath  string
	logger      *zap.Logger
}

type BackendClientConfig struct {
	BaseURL     string
	ProfilePath string
	StatusPath  string
	Timeout     time.Duration
}

func NewBackendClient(cfg BackendClientConfig, log *zap.Logger) *BackendClient {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &BackendClient{
		http:        httpClient,
		profilePath: cfg.ProfilePath,
		statusPath:  cfg.StatusPath,
		logger:      log,
	}
}

type profileResponse struct {
	User *profileUser `json:"user"`
}

type profileUser struct {
	ID    json.RawMessage `json:"id"`
	Email string          `json:"email"`
	Name  string          `json:"name"`
	Phone string          `json:"phone"`
}

// Resolve looks up the profile behind token. An empty token short-circuits
// without a network call.
func (b *BackendClient) Resolve(ctx context.Context, token string) models.IdentityResult {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Anonymous
	}

	resp, err := b.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get(b.profilePath)
	if err != nil {
		b.logger.Error("Identity lookup failed, continuing as guest", logger.Field(ctx), zap.Error(err))
		return models.Anonymous
	}
	if !resp.IsSuccess() {
		b.logger.Warn("Identity service rejected token, continuing as guest",
			logger.Field(ctx),
			zap.Int("status", resp.StatusCode()),
		)
		return models.Anonymous
	}

	var body profileResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		b.logger.Warn("Identity response is not valid JSON, continuing as guest", logger.Field(ctx), zap.Error(err))
		return models.Anonymous
	}
	if body.User == nil {
		b.logger.Warn("Identity response has no user, continuing as guest", logger.Field(ctx))
		return models.Anonymous
	}

	identity := &models.Identity{
		ID:    rawID(body.User.ID),
		Email: strings.TrimSpace(body.User.Email),
		Name:  strings.TrimSpace(body.User.Name),
		Phone: strings.TrimSpace(body.User.Phone),
	}
	if identity.ID == "" && identity.Email == "" {
		b.logger.Warn("Identity response user is empty, continuing as guest", logger.Field(ctx))
		return models.Anonymous
	}

	b.logger.Info("Identity resolved", logger.Field(ctx), zap.String("user_id", identity.ID))
	return models.IdentityResult{Authenticated: true, Identity: identity}
}

// NotifyPaymentStatus POSTs the notification to the backend. It is a no-op
// when no status path is configured.
func (b *BackendClient) NotifyPaymentStatus(ctx context.Context, n models.PaymentStatusNotification) error {
	if b.statusPath == "" {
		return nil
	}

	resp, err := b.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(n).
		Post(b.statusPath)
	if err != nil {
		return fmt.Errorf("notify backend: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("notify backend: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// rawID accepts both numeric and string ids.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
