package models

import "time"

// PaymentEvent is published to SNS for every verified payment_intent webhook.
type PaymentEvent struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"` // payment_succeeded, payment_failed, payment_canceled
	StripeEventID   string    `json:"stripe_event_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	OrderID         string    `json:"order_id,omitempty"`
	CustomerID      string    `json:"customer_id,omitempty"`
	UserID          string    `json:"user_id,omitempty"`
	Amount          int64     `json:"amount"`   // smallest currency unit
	Currency        string    `json:"currency"` // "usd", "inr"
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
}

// PaymentStatusNotification is POSTed back to the backend for the same events.
type PaymentStatusNotification struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}
