package services

import (
	"context"

	apperrors "payment-gateway/common/errors"
	"payment-gateway/common/logger"
	"payment-gateway/models"
	awspkg "payment-gateway/pkg/aws"

	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// CustomerResolver finds or creates the Stripe customer for an email.
//
// Two concurrent first checkouts for the same email can both miss the search
// and create two customers. Later searches pick whichever Stripe returns first.
type CustomerResolver struct {
	processor PaymentProcessor
	metrics   awspkg.MetricsRecorder
	logger    *zap.Logger
}

func NewCustomerResolver(processor PaymentProcessor, metrics awspkg.MetricsRecorder, log *zap.Logger) *CustomerResolver {
	return &CustomerResolver{processor: processor, metrics: metrics, logger: log}
}

// ResolveCustomer returns the first customer with this email, creating one
// tagged with its origin when none exists.
func (r *CustomerResolver) ResolveCustomer(ctx context.Context, email string, identity models.IdentityResult) (*stripe.Customer, error) {
	existing, err := r.processor.SearchCustomerByEmail(ctx, email)
	if err != nil {
		r.logger.Error("Customer search failed", logger.Field(ctx), zap.Error(err))
		return nil, apperrors.ErrCustomerResolution.Wrap(err)
	}
	if existing != nil {
		r.logger.Debug("Reusing existing customer", logger.Field(ctx), zap.String("customer_id", existing.ID))
		return existing, nil
	}

	params := &stripe.CustomerParams{Email: stripe.String(email)}
	if identity.Authenticated && identity.Identity != nil {
		if identity.Identity.Name != "" {
			params.Name = stripe.String(identity.Identity.Name)
		}
		if identity.Identity.Phone != "" {
			params.Phone = stripe.String(identity.Identity.Phone)
		}
		params.AddMetadata("source", models.SourceAuthenticated)
	} else {
		params.AddMetadata("source", models.SourceGuest)
	}
	if uid := identity.UserID(); uid != "" {
		params.AddMetadata("laravel_user_id", uid)
	}

	created, err := r.processor.CreateCustomer(ctx, params)
	if err != nil {
		r.logger.Error("Customer creation failed", logger.Field(ctx), zap.Error(err))
		return nil, apperrors.ErrCustomerResolution.Wrap(err)
	}

	r.count(ctx, awspkg.MetricCustomerCreated, params.Metadata["source"])
	r.logger.Info("Customer created",
		logger.Field(ctx),
		zap.String("customer_id", created.ID),
		zap.Bool("authenticated", identity.Authenticated),
	)
	return created, nil
}

func (r *CustomerResolver) count(ctx context.Context, metric, source string) {
	if r.metrics == nil {
		return
	}
	if err := r.metrics.RecordCount(ctx, metric, map[string]string{"Source": source}); err != nil {
		r.logger.Debug("Metric not recorded", zap.String("metric", metric), zap.Error(err))
	}
}
