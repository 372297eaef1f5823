package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

// PaymentProcessor is everything the gateway asks of Stripe.
type PaymentProcessor interface {
	SearchCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error)
	CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error)
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CreateEphemeralKey(ctx context.Context, customerID string) (*stripe.EphemeralKey, error)
	CreateSetupIntent(ctx context.Context, params *stripe.SetupIntentParams) (*stripe.SetupIntent, error)
	CreateCharge(ctx context.Context, params *stripe.ChargeParams) (*stripe.Charge, error)
	ParseWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

// StripeService talks to Stripe through its own client.API, so nothing
// depends on the package-level stripe.Key.
type StripeService struct {
	client     *client.API
	webhookKey string
	apiVersion string
}

// NewStripeService builds the client. backends may be nil to use Stripe's
// production endpoints; tests pass a backend pointed at an httptest server.
func NewStripeService(secretKey, webhookKey, apiVersion string, backends *stripe.Backends) *StripeService {
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &StripeService{client: sc, webhookKey: webhookKey, apiVersion: apiVersion}
}

// SearchCustomerByEmail returns the first customer whose email matches, or
// nil when there is none.
func (s *StripeService) SearchCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	params := &stripe.CustomerSearchParams{}
	params.Context = ctx
	params.Query = emailQuery(email)
	params.Limit = stripe.Int64(1)

	iter := s.client.Customers.Search(params)
	if iter.Next() {
		return iter.Customer(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *StripeService) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	params.Context = ctx
	return s.client.Customers.New(params)
}

func (s *StripeService) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx
	return s.client.PaymentIntents.New(params)
}

func (s *StripeService) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return s.client.PaymentIntents.Get(id, params)
}

// CreateEphemeralKey issues a key for the customer pinned to the API version
// the storefront SDK was built against.
func (s *StripeService) CreateEphemeralKey(ctx context.Context, customerID string) (*stripe.EphemeralKey, error) {
	params := &stripe.EphemeralKeyParams{
		Customer:      stripe.String(customerID),
		StripeVersion: stripe.String(s.apiVersion),
	}
	params.Context = ctx
	return s.client.EphemeralKeys.New(params)
}

func (s *StripeService) CreateSetupIntent(ctx context.Context, params *stripe.SetupIntentParams) (*stripe.SetupIntent, error) {
	params.Context = ctx
	return s.client.SetupIntents.New(params)
}

func (s *StripeService) CreateCharge(ctx context.Context, params *stripe.ChargeParams) (*stripe.Charge, error) {
	params.Context = ctx
	return s.client.Charges.New(params)
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
// The endpoint may be registered on an older API version than this SDK; only
// ids, amounts, status and metadata are read, which are stable across versions.
func (s *StripeService) ParseWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, s.webhookKey, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// emailQuery builds an exact-match search clause. Stripe's search syntax
// escapes quotes with a backslash.
func emailQuery(email string) string {
	escaped := strings.ReplaceAll(email, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	return "email:'" + escaped + "'"
}

// ProcessorMessage returns Stripe's human-readable message for err, falling
// back to err.Error() for non-Stripe failures.
func ProcessorMessage(err error) string {
	if err == nil {
		return ""
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}

// ProcessorStatus returns the HTTP status Stripe answered with, or 500.
func ProcessorStatus(err error) int {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode != 0 {
		return stripeErr.HTTPStatusCode
	}
	return http.StatusInternalServerError
}
