package services_test

import (
	"encoding/json"
	"errors"
	"testing"

	"payment-gateway/models"
	awspkg "payment-gateway/pkg/aws"
	"payment-gateway/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

const testTopic = "arn:aws:sns:us-east-1:000000000000:payment-events"

func paymentIntentEvent(t *testing.T, eventType stripe.EventType) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":       "pi_1",
		"object":   "payment_intent",
		"amount":   2500,
		"currency": "usd",
		"status":   "succeeded",
		"customer": "cus_1",
		"metadata": map[string]string{"order_id": "1001", "laravel_user_id": "42"},
	})
	require.NoError(t, err)
	return stripe.Event{ID: "evt_1", Type: eventType, Data: &stripe.EventData{Raw: raw}}
}

func TestWebhook_PublishesAndNotifies(t *testing.T) {
	proc := &fakeProcessor{event: paymentIntentEvent(t, stripe.EventTypePaymentIntentSucceeded)}
	sns := &fakeSNS{}
	notifier := &fakeNotifier{}
	metrics := newFakeMetrics()
	svc := services.NewWebhookService(proc, sns, testTopic, notifier, metrics, zap.NewNop())

	event, err := svc.Handle(testContext(t), []byte(`{}`), "t=1,v1=sig")

	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)

	require.Len(t, sns.messages, 1)
	msg := sns.messages[0]
	assert.Equal(t, testTopic, msg.topic)
	assert.Equal(t, map[string]string{"event_type": "payment_succeeded"}, msg.attributes)

	var published models.PaymentEvent
	require.NoError(t, json.Unmarshal(msg.message, &published))
	assert.NotEmpty(t, published.ID)
	assert.Equal(t, "payment_succeeded", published.Type)
	assert.Equal(t, "evt_1", published.StripeEventID)
	assert.Equal(t, "pi_1", published.PaymentIntentID)
	assert.Equal(t, "1001", published.OrderID)
	assert.Equal(t, "42", published.UserID)
	assert.Equal(t, "cus_1", published.CustomerID)
	assert.Equal(t, int64(2500), published.Amount)

	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, models.PaymentStatusNotification{
		OrderID: "1001", PaymentIntentID: "pi_1", Status: "succeeded", Amount: 2500, Currency: "usd",
	}, notifier.notifications[0])
	assert.Equal(t, 1, metrics.counts[awspkg.MetricWebhookReceived])
}

func TestWebhook_DownstreamFailuresAreAcknowledged(t *testing.T) {
	proc := &fakeProcessor{event: paymentIntentEvent(t, stripe.EventTypePaymentIntentPaymentFailed)}
	sns := &fakeSNS{publishErr: errors.New("sns down")}
	notifier := &fakeNotifier{err: errors.New("backend down")}
	svc := services.NewWebhookService(proc, sns, testTopic, notifier, nil, zap.NewNop())

	event, err := svc.Handle(testContext(t), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.Equal(t, stripe.EventTypePaymentIntentPaymentFailed, event.Type)
	assert.Equal(t, "payment_failed", sns.messages[0].attributes["event_type"])
	assert.Len(t, notifier.notifications, 1)
}

func TestWebhook_UnhandledTypeIsIgnored(t *testing.T) {
	proc := &fakeProcessor{event: stripe.Event{ID: "evt_2", Type: "charge.refunded"}}
	sns := &fakeSNS{}
	notifier := &fakeNotifier{}
	svc := services.NewWebhookService(proc, sns, testTopic, notifier, nil, zap.NewNop())

	_, err := svc.Handle(testContext(t), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.Empty(t, sns.messages)
	assert.Empty(t, notifier.notifications)
}

func TestWebhook_NoTopicSkipsPublish(t *testing.T) {
	proc := &fakeProcessor{event: paymentIntentEvent(t, stripe.EventTypePaymentIntentCanceled)}
	sns := &fakeSNS{}
	notifier := &fakeNotifier{}
	svc := services.NewWebhookService(proc, sns, "", notifier, nil, zap.NewNop())

	_, err := svc.Handle(testContext(t), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.Empty(t, sns.messages)
	assert.Len(t, notifier.notifications, 1)
}

func TestWebhook_BadSignature(t *testing.T) {
	sigErr := errors.New("webhook has invalid signature")
	proc := &fakeProcessor{webhookErr: sigErr}
	sns := &fakeSNS{}
	metrics := newFakeMetrics()
	svc := services.NewWebhookService(proc, sns, testTopic, nil, metrics, zap.NewNop())

	event, err := svc.Handle(testContext(t), []byte(`{}`), "bogus")

	assert.Nil(t, event)
	assert.Same(t, sigErr, err)
	assert.Empty(t, sns.messages)
	assert.Equal(t, 1, metrics.counts[awspkg.MetricWebhookRejected])
}
