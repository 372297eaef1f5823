package models

import "strings"

const (
	DefaultCurrency      = "usd"
	DefaultCaptureMethod = "automatic"
	DefaultThreeDSecure  = "automatic"

	// GenericFailureMessage is shown to shoppers instead of processor errors.
	GenericFailureMessage = "Transaction failed. Please check the card information and try again."

	SourceAuthenticated = "laravel_authenticated"
	SourceGuest         = "guest_checkout"
	IntentSourceTag     = "woocommerce_gateway"
)

// CheckoutRequest is the body of POST /payment-intent-v4.
type CheckoutRequest struct {
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	CurrencyCode    string `json:"currencyCode"`
	CaptureMethod   string `json:"captureMethod"`
	Request3DSecure string `json:"request3dSecure"`
	OrderID         string `json:"orderId"`
	Email           string `json:"email"`
	CookieWoo       string `json:"cookieWoo"`
}

// ApplyDefaults fills the optional processor settings.
func (r *CheckoutRequest) ApplyDefaults() {
	r.CurrencyCode = strings.ToLower(orDefault(r.CurrencyCode, DefaultCurrency))
	r.CaptureMethod = orDefault(r.CaptureMethod, DefaultCaptureMethod)
	r.Request3DSecure = orDefault(r.Request3DSecure, DefaultThreeDSecure)
	r.Email = strings.TrimSpace(r.Email)
}

// CheckoutResponse is the success body of POST /payment-intent-v4.
type CheckoutResponse struct {
	Success      bool   `json:"success"`
	CustomerID   string `json:"customer_id"`
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	EphemeralKey string `json:"ephemeral_key,omitempty"`
	SetupIntent  string `json:"setupIntent,omitempty"`
}

// FailureResponse is the uniform payment failure body.
type FailureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ChargeRequest is the body of the legacy POST /payment.
type ChargeRequest struct {
	Amount       int64  `json:"amount" binding:"required,gt=0"`
	CurrencyCode string `json:"currencyCode"`
	Token        string `json:"token"`
	Email        string `json:"email"`
}

// ConfirmIntentRequest is the body of the legacy POST /payment-intent.
type ConfirmIntentRequest struct {
	PaymentMethodID string `json:"payment_method_id" binding:"required"`
	ReturnURL       string `json:"returnUrl"`
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	CurrencyCode    string `json:"currencyCode"`
	Token           string `json:"token"`
	Email           string `json:"email"`
	CaptureMethod   string `json:"captureMethod"`
}

// LegacyIntentRequest is the body of POST /payment-intent-v2 and -v3.
// Request3DSecure and OrderID are only read by v3.
type LegacyIntentRequest struct {
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	CurrencyCode    string `json:"currencyCode"`
	Token           string `json:"token"`
	Email           string `json:"email"`
	CaptureMethod   string `json:"captureMethod"`
	Request3DSecure string `json:"request3dSecure"`
	OrderID         string `json:"orderId"`
}

// Currency returns the lower-cased currency or the default.
func Currency(code string) string {
	return strings.ToLower(orDefault(code, DefaultCurrency))
}

// CaptureMethod returns the capture method or the default.
func CaptureMethod(method string) string {
	return orDefault(method, DefaultCaptureMethod)
}

// IntentResponse is the legacy success body.
type IntentResponse struct {
	Success      bool   `json:"success"`
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// MessageResponse is the legacy /payment body.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}
