package services

import (
	"context"
	"encoding/json"
	"time"

	"payment-gateway/common/logger"
	"payment-gateway/models"
	awspkg "payment-gateway/pkg/aws"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// paymentEventTypes maps the Stripe events we forward to our event type.
var paymentEventTypes = map[stripe.EventType]string{
	stripe.EventTypePaymentIntentSucceeded:     "payment_succeeded",
	stripe.EventTypePaymentIntentPaymentFailed: "payment_failed",
	stripe.EventTypePaymentIntentCanceled:      "payment_canceled",
}

// WebhookService verifies Stripe webhooks and fans payment_intent events out
// to SNS and the backend. Only signature failures are reported to Stripe.
type WebhookService struct {
	processor PaymentProcessor
	publisher awspkg.SNSPublisher
	topicArn  string
	notifier  PaymentStatusNotifier
	metrics   awspkg.MetricsRecorder
	logger    *zap.Logger
}

func NewWebhookService(
	processor PaymentProcessor,
	publisher awspkg.SNSPublisher,
	topicArn string,
	notifier PaymentStatusNotifier,
	metrics awspkg.MetricsRecorder,
	log *zap.Logger,
) *WebhookService {
	return &WebhookService{
		processor: processor,
		publisher: publisher,
		topicArn:  topicArn,
		notifier:  notifier,
		metrics:   metrics,
		logger:    log,
	}
}

// Handle verifies payload against sigHeader and dispatches the event. The
// returned error is always a verification error.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, sigHeader string) (*stripe.Event, error) {
	event, err := s.processor.ParseWebhook(payload, sigHeader)
	if err != nil {
		s.logger.Warn("Stripe webhook signature verification failed", logger.Field(ctx), zap.Error(err))
		s.count(ctx, awspkg.MetricWebhookRejected, "")
		return nil, err
	}

	s.logger.Info("Processing Stripe webhook",
		logger.Field(ctx),
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
	)
	s.count(ctx, awspkg.MetricWebhookReceived, string(event.Type))

	eventType, ok := paymentEventTypes[event.Type]
	if !ok {
		s.logger.Info("Unhandled webhook event type", logger.Field(ctx), zap.String("event_type", string(event.Type)))
		return &event, nil
	}

	var pi stripe.PaymentIntent
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &pi) != nil {
		s.logger.Error("Failed to unmarshal payment intent", logger.Field(ctx), zap.String("event_id", event.ID))
		return &event, nil
	}

	s.publish(ctx, event, eventType, &pi)
	s.notify(ctx, &pi)
	return &event, nil
}

func (s *WebhookService) publish(ctx context.Context, event stripe.Event, eventType string, pi *stripe.PaymentIntent) {
	if s.publisher == nil || s.topicArn == "" {
		return
	}

	msg := models.PaymentEvent{
		ID:              uuid.NewString(),
		Type:            eventType,
		StripeEventID:   event.ID,
		PaymentIntentID: pi.ID,
		OrderID:         pi.Metadata["order_id"],
		UserID:          pi.Metadata["laravel_user_id"],
		Amount:          pi.Amount,
		Currency:        string(pi.Currency),
		Status:          string(pi.Status),
		Timestamp:       time.Now().UTC(),
	}
	if pi.Customer != nil {
		msg.CustomerID = pi.Customer.ID
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("Failed to marshal payment event", logger.Field(ctx), zap.Error(err))
		return
	}

	if err := s.publisher.Publish(ctx, s.topicArn, payload, map[string]string{"event_type": eventType}); err != nil {
		s.logger.Error("Failed to publish payment event to SNS",
			logger.Field(ctx),
			zap.String("event_type", eventType),
			zap.String("payment_intent_id", pi.ID),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("Payment event published to SNS",
		logger.Field(ctx),
		zap.String("event_type", eventType),
		zap.String("payment_intent_id", pi.ID),
	)
}

func (s *WebhookService) notify(ctx context.Context, pi *stripe.PaymentIntent) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.NotifyPaymentStatus(ctx, models.PaymentStatusNotification{
		OrderID:         pi.Metadata["order_id"],
		PaymentIntentID: pi.ID,
		Status:          string(pi.Status),
		Amount:          pi.Amount,
		Currency:        string(pi.Currency),
	})
	if err != nil {
		s.logger.Warn("Backend payment status notification failed",
			logger.Field(ctx),
			zap.String("payment_intent_id", pi.ID),
			zap.Error(err),
		)
	}
}

func (s *WebhookService) count(ctx context.Context, metric, eventType string) {
	if s.metrics == nil {
		return
	}
	var dims map[string]string
	if eventType != "" {
		dims = map[string]string{"EventType": eventType}
	}
	if err := s.metrics.RecordCount(ctx, metric, dims); err != nil {
		s.logger.Debug("Metric not recorded", zap.String("metric", metric), zap.Error(err))
	}
}
