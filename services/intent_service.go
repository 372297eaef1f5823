package services

import (
	"context"
	"fmt"
	"strconv"

	apperrors "payment-gateway/common/errors"
	"payment-gateway/common/logger"
	"payment-gateway/models"
	awspkg "payment-gateway/pkg/aws"

	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// IntentService runs the v4 checkout: identity, customer, payment intent and,
// for signed-in shoppers, the ephemeral key and setup intent used to save
// cards.
type IntentService struct {
	identity  IdentityResolver
	customers *CustomerResolver
	processor PaymentProcessor
	metrics   awspkg.MetricsRecorder
	logger    *zap.Logger
}

func NewIntentService(
	identity IdentityResolver,
	customers *CustomerResolver,
	processor PaymentProcessor,
	metrics awspkg.MetricsRecorder,
	log *zap.Logger,
) *IntentService {
	return &IntentService{
		identity:  identity,
		customers: customers,
		processor: processor,
		metrics:   metrics,
		logger:    log,
	}
}

// CreateIntent returns an *apperrors.Error on failure: ErrMissingEmail for a
// request with no usable email, ErrCustomerResolution or ErrPaymentFailed
// wrapping the Stripe error otherwise.
func (s *IntentService) CreateIntent(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	req.ApplyDefaults()

	identity := s.identity.Resolve(ctx, req.CookieWoo)
	email := req.Email
	if identity.Authenticated && identity.Identity.Email != "" {
		email = identity.Identity.Email
	}
	if email == "" {
		return nil, apperrors.ErrMissingEmail
	}
	if !identity.Authenticated {
		s.count(ctx, awspkg.MetricGuestCheckout)
	}

	customer, err := s.customers.ResolveCustomer(ctx, email, identity)
	if err != nil {
		s.count(ctx, awspkg.MetricPaymentIntentFailed)
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.CurrencyCode),
		Customer:           stripe.String(customer.ID),
		CaptureMethod:      stripe.String(req.CaptureMethod),
		Confirm:            stripe.Bool(false),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		PaymentMethodOptions: &stripe.PaymentIntentPaymentMethodOptionsParams{
			Card: &stripe.PaymentIntentPaymentMethodOptionsCardParams{
				RequestThreeDSecure: stripe.String(req.Request3DSecure),
			},
		},
		Description:  stripe.String(fmt.Sprintf("Payment for %s - Order #%s", email, req.OrderID)),
		ReceiptEmail: stripe.String(email),
	}
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("laravel_user_id", identity.UserID())
	params.AddMetadata("authenticated", strconv.FormatBool(identity.Authenticated))
	params.AddMetadata("source", models.IntentSourceTag)

	intent, err := s.processor.CreatePaymentIntent(ctx, params)
	if err != nil {
		s.logger.Error("Payment intent creation failed",
			logger.Field(ctx),
			zap.String("customer_id", customer.ID),
			zap.String("order_id", req.OrderID),
			zap.Error(err),
		)
		s.count(ctx, awspkg.MetricPaymentIntentFailed)
		return nil, apperrors.ErrPaymentFailed.Wrap(err)
	}
	s.count(ctx, awspkg.MetricPaymentIntentCreated)

	resp := &models.CheckoutResponse{
		Success:      true,
		CustomerID:   customer.ID,
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
	}

	if identity.Authenticated {
		s.attachSessionObjects(ctx, customer.ID, resp)
	}

	s.logger.Info("Payment intent created",
		logger.Field(ctx),
		zap.String("payment_intent_id", intent.ID),
		zap.String("customer_id", customer.ID),
		zap.String("order_id", req.OrderID),
		zap.Bool("authenticated", identity.Authenticated),
	)
	return resp, nil
}

// attachSessionObjects adds the ephemeral key and setup intent. Both fields are
// set together or not at all; a failure leaves the payment intent usable.
func (s *IntentService) attachSessionObjects(ctx context.Context, customerID string, resp *models.CheckoutResponse) {
	key, err := s.processor.CreateEphemeralKey(ctx, customerID)
	if err != nil {
		s.logger.Warn("Ephemeral key creation failed", logger.Field(ctx), zap.String("customer_id", customerID), zap.Error(err))
		return
	}

	setup, err := s.processor.CreateSetupIntent(ctx, &stripe.SetupIntentParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Usage:              stripe.String(string(stripe.SetupIntentUsageOffSession)),
	})
	if err != nil {
		s.logger.Warn("Setup intent creation failed", logger.Field(ctx), zap.String("customer_id", customerID), zap.Error(err))
		return
	}

	resp.EphemeralKey = key.Secret
	resp.SetupIntent = setup.ClientSecret
}

func (s *IntentService) count(ctx context.Context, metric string) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.RecordCount(ctx, metric, nil); err != nil {
		s.logger.Debug("Metric not recorded", zap.String("metric", metric), zap.Error(err))
	}
}
