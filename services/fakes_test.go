package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"payment-gateway/models"

	"github.com/stripe/stripe-go/v80"
)

// ---- fake Stripe ----

type fakeProcessor struct {
	mu sync.Mutex

	existing *stripe.Customer
	event    stripe.Event

	searchErr         error
	createCustomerErr error
	intentErr         error
	getErr            error
	ephemeralErr      error
	setupErr          error
	chargeErr         error
	webhookErr        error

	searchedEmails   []string
	createdCustomers []*stripe.CustomerParams
	intents          []*stripe.PaymentIntentParams
	charges          []*stripe.ChargeParams
	ephemeralCalls   int
	setupIntents     []*stripe.SetupIntentParams
}

func (f *fakeProcessor) SearchCustomerByEmail(_ context.Context, email string) (*stripe.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchedEmails = append(f.searchedEmails, email)
	return f.existing, f.searchErr
}

func (f *fakeProcessor) CreateCustomer(_ context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdCustomers = append(f.createdCustomers, params)
	if f.createCustomerErr != nil {
		return nil, f.createCustomerErr
	}
	c := &stripe.Customer{ID: "cus_new", Metadata: params.Metadata}
	if params.Email != nil {
		c.Email = *params.Email
	}
	return c, nil
}

func (f *fakeProcessor) CreatePaymentIntent(_ context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents = append(f.intents, params)
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	return &stripe.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret_abc"}, nil
}

func (f *fakeProcessor) GetPaymentIntent(_ context.Context, id string) (*stripe.PaymentIntent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &stripe.PaymentIntent{ID: id, Status: stripe.PaymentIntentStatusRequiresPaymentMethod}, nil
}

func (f *fakeProcessor) CreateEphemeralKey(_ context.Context, customerID string) (*stripe.EphemeralKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ephemeralCalls++
	if f.ephemeralErr != nil {
		return nil, f.ephemeralErr
	}
	return &stripe.EphemeralKey{ID: "ephkey_1", Secret: "ek_secret_" + customerID}, nil
}

func (f *fakeProcessor) CreateSetupIntent(_ context.Context, params *stripe.SetupIntentParams) (*stripe.SetupIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setupIntents = append(f.setupIntents, params)
	if f.setupErr != nil {
		return nil, f.setupErr
	}
	return &stripe.SetupIntent{ID: "seti_1", ClientSecret: "seti_1_secret"}, nil
}

func (f *fakeProcessor) CreateCharge(_ context.Context, params *stripe.ChargeParams) (*stripe.Charge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charges = append(f.charges, params)
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return &stripe.Charge{ID: "ch_1", Paid: true}, nil
}

func (f *fakeProcessor) ParseWebhook(_ []byte, _ string) (stripe.Event, error) {
	if f.webhookErr != nil {
		return stripe.Event{}, f.webhookErr
	}
	return f.event, nil
}

// ---- fake identity service ----

type fakeIdentity struct {
	result models.IdentityResult
	calls  []string
}

func (f *fakeIdentity) Resolve(_ context.Context, token string) models.IdentityResult {
	f.calls = append(f.calls, token)
	if token == "" {
		return models.Anonymous
	}
	return f.result
}

// ---- fake SNS / backend notifier ----

type published struct {
	topic      string
	message    []byte
	attributes map[string]string
}

type fakeSNS struct {
	publishErr error
	messages   []published
}

func (f *fakeSNS) Publish(_ context.Context, topicArn string, message []byte, attributes map[string]string) error {
	f.messages = append(f.messages, published{topic: topicArn, message: message, attributes: attributes})
	return f.publishErr
}

type fakeNotifier struct {
	err           error
	notifications []models.PaymentStatusNotification
}

func (f *fakeNotifier) NotifyPaymentStatus(_ context.Context, n models.PaymentStatusNotification) error {
	f.notifications = append(f.notifications, n)
	return f.err
}

// ---- fake metrics ----

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{counts: map[string]int{}} }

func (m *fakeMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
	return m.err
}

func (m *fakeMetrics) RecordLatency(context.Context, string, time.Duration, map[string]string) error {
	return nil
}

func (m *fakeMetrics) IsEnabled() bool { return true }

var errDeclined = &stripe.Error{
	HTTPStatusCode: 402,
	Type:           stripe.ErrorTypeCard,
	Code:           stripe.ErrorCodeCardDeclined,
	Msg:            "Your card was declined.",
}

var errNetwork = errors.New("dial tcp: connection refused")

func authenticated(id, email string) models.IdentityResult {
	return models.IdentityResult{
		Authenticated: true,
		Identity:      &models.Identity{ID: id, Email: email, Name: "Ada Lovelace", Phone: "+15550100"},
	}
}
