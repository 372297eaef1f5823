package services

import (
	"context"

	apperrors "payment-gateway/common/errors"
	"payment-gateway/common/logger"
	"payment-gateway/models"

	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// LegacyService backs the pre-v4 endpoints still called by older storefront
// builds. None of them resolve identities; v3 never reuses customers.
type LegacyService struct {
	processor PaymentProcessor
	logger    *zap.Logger
}

func NewLegacyService(processor PaymentProcessor, log *zap.Logger) *LegacyService {
	return &LegacyService{processor: processor, logger: log}
}

// Charge creates a customer from a card token and charges it directly.
func (s *LegacyService) Charge(ctx context.Context, req models.ChargeRequest) (*stripe.Charge, error) {
	customer, err := s.newCustomer(ctx, req.Email, req.Token)
	if err != nil {
		return nil, err
	}

	charge, err := s.processor.CreateCharge(ctx, &stripe.ChargeParams{
		Amount:       stripe.Int64(req.Amount),
		Currency:     stripe.String(models.Currency(req.CurrencyCode)),
		Customer:     stripe.String(customer.ID),
		ReceiptEmail: optionalString(req.Email),
	})
	if err != nil {
		s.logger.Error("Charge failed", logger.Field(ctx), zap.String("customer_id", customer.ID), zap.Error(err))
		return nil, apperrors.ErrPaymentFailed.Wrap(err)
	}

	s.logger.Info("Charge created", logger.Field(ctx), zap.String("charge_id", charge.ID))
	return charge, nil
}

// ConfirmIntent creates and confirms an intent for an already collected
// payment method in one call.
func (s *LegacyService) ConfirmIntent(ctx context.Context, req models.ConfirmIntentRequest) (*stripe.PaymentIntent, error) {
	customer, err := s.newCustomer(ctx, req.Email, req.Token)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(models.Currency(req.CurrencyCode)),
		Customer:      stripe.String(customer.ID),
		CaptureMethod: stripe.String(models.CaptureMethod(req.CaptureMethod)),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		ReceiptEmail:  optionalString(req.Email),
		ReturnURL:     optionalString(req.ReturnURL),
	}
	return s.createIntent(ctx, params)
}

// CreateIntentV2 creates an unconfirmed intent for a tokenised customer.
func (s *LegacyService) CreateIntentV2(ctx context.Context, req models.LegacyIntentRequest) (*stripe.PaymentIntent, error) {
	customer, err := s.newCustomer(ctx, req.Email, req.Token)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(models.Currency(req.CurrencyCode)),
		Customer:      stripe.String(customer.ID),
		CaptureMethod: stripe.String(models.CaptureMethod(req.CaptureMethod)),
		ReceiptEmail:  optionalString(req.Email),
	}
	return s.createIntent(ctx, params)
}

// CreateIntentV3 always creates a fresh customer and an unconfirmed card
// intent with the requested 3-D Secure mode.
func (s *LegacyService) CreateIntentV3(ctx context.Context, req models.LegacyIntentRequest) (*stripe.PaymentIntent, error) {
	customer, err := s.newCustomer(ctx, req.Email, req.Token)
	if err != nil {
		return nil, err
	}

	threeDS := req.Request3DSecure
	if threeDS == "" {
		threeDS = models.DefaultThreeDSecure
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(models.Currency(req.CurrencyCode)),
		Customer:           stripe.String(customer.ID),
		CaptureMethod:      stripe.String(models.CaptureMethod(req.CaptureMethod)),
		Confirm:            stripe.Bool(false),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		PaymentMethodOptions: &stripe.PaymentIntentPaymentMethodOptionsParams{
			Card: &stripe.PaymentIntentPaymentMethodOptionsCardParams{
				RequestThreeDSecure: stripe.String(threeDS),
			},
		},
		ReceiptEmail: optionalString(req.Email),
	}
	params.AddMetadata("order_id", req.OrderID)
	return s.createIntent(ctx, params)
}

// GetIntent returns the intent as Stripe reports it. Errors are the raw
// Stripe errors so callers can relay Stripe's status.
func (s *LegacyService) GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	intent, err := s.processor.GetPaymentIntent(ctx, id)
	if err != nil {
		s.logger.Warn("Payment intent lookup failed", logger.Field(ctx), zap.String("payment_intent_id", id), zap.Error(err))
		return nil, err
	}
	return intent, nil
}

func (s *LegacyService) newCustomer(ctx context.Context, email, token string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Email:  optionalString(email),
		Source: optionalString(token),
	}
	customer, err := s.processor.CreateCustomer(ctx, params)
	if err != nil {
		s.logger.Error("Customer creation failed", logger.Field(ctx), zap.Error(err))
		return nil, apperrors.ErrCustomerResolution.Wrap(err)
	}
	return customer, nil
}

func (s *LegacyService) createIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	intent, err := s.processor.CreatePaymentIntent(ctx, params)
	if err != nil {
		s.logger.Error("Payment intent creation failed", logger.Field(ctx), zap.Error(err))
		return nil, apperrors.ErrPaymentFailed.Wrap(err)
	}
	s.logger.Info("Payment intent created", logger.Field(ctx), zap.String("payment_intent_id", intent.ID))
	return intent, nil
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return stripe.String(v)
}
