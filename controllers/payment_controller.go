package controllers

import (
	"context"
	"errors"
	"net/http"

	commonmw "payment-gateway/common/middleware"
	"payment-gateway/middleware"
	"payment-gateway/models"
	"payment-gateway/services"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

type CheckoutService interface {
	CreateIntent(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error)
}

type LegacyPayments interface {
	Charge(ctx context.Context, req models.ChargeRequest) (*stripe.Charge, error)
	ConfirmIntent(ctx context.Context, req models.ConfirmIntentRequest) (*stripe.PaymentIntent, error)
	CreateIntentV2(ctx context.Context, req models.LegacyIntentRequest) (*stripe.PaymentIntent, error)
	CreateIntentV3(ctx context.Context, req models.LegacyIntentRequest) (*stripe.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

type WebhookHandler interface {
	Handle(ctx context.Context, payload []byte, sigHeader string) (*stripe.Event, error)
}

type PaymentController struct {
	Checkout CheckoutService
	Legacy   LegacyPayments
	Webhooks WebhookHandler
	Logger   *zap.Logger
}

func NewPaymentController(checkout CheckoutService, legacy LegacyPayments, webhooks WebhookHandler, log *zap.Logger) *PaymentController {
	return &PaymentController{Checkout: checkout, Legacy: legacy, Webhooks: webhooks, Logger: log}
}

// CreatePaymentIntentV4 is the storefront checkout: identity, customer and an
// unconfirmed card intent, plus saved-card objects for signed-in shoppers.
func (pc *PaymentController) CreatePaymentIntentV4(c *gin.Context) {
	var req models.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.CookieWoo == "" {
		req.CookieWoo = middleware.GetBearerToken(c)
	}

	resp, err := pc.Checkout.CreateIntent(c.Request.Context(), req)
	if err != nil {
		pc.respondFailure(c, err, true)
		return
	}
	c.Set(commonmw.OutcomeKey, "succeeded")
	c.JSON(http.StatusOK, resp)
}

// CreatePayment charges a card token directly.
func (pc *PaymentController) CreatePayment(c *gin.Context) {
	var req models.ChargeRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, err := pc.Legacy.Charge(c.Request.Context(), req); err != nil {
		pc.respondFailure(c, err, false)
		return
	}
	c.Set(commonmw.OutcomeKey, "succeeded")
	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "Payment successful"})
}

// CreatePaymentIntent creates and confirms an intent for a collected payment
// method.
func (pc *PaymentController) CreatePaymentIntent(c *gin.Context) {
	var req models.ConfirmIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	pi, err := pc.Legacy.ConfirmIntent(c.Request.Context(), req)
	pc.respondIntent(c, pi, err)
}

func (pc *PaymentController) CreatePaymentIntentV2(c *gin.Context) {
	var req models.LegacyIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	pi, err := pc.Legacy.CreateIntentV2(c.Request.Context(), req)
	pc.respondIntent(c, pi, err)
}

func (pc *PaymentController) CreatePaymentIntentV3(c *gin.Context) {
	var req models.LegacyIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	pi, err := pc.Legacy.CreateIntentV3(c.Request.Context(), req)
	pc.respondIntent(c, pi, err)
}

// GetPaymentIntent relays Stripe's intent object, or Stripe's error with
// Stripe's status.
func (pc *PaymentController) GetPaymentIntent(c *gin.Context) {
	pi, err := pc.Legacy.GetIntent(c.Request.Context(), c.Param("id"))
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			status := services.ProcessorStatus(err)
			if stripeErr.LastResponse != nil && len(stripeErr.LastResponse.RawJSON) > 0 {
				c.Data(status, "application/json; charset=utf-8", stripeErr.LastResponse.RawJSON)
				return
			}
			c.JSON(status, stripeErr)
			return
		}
		c.JSON(http.StatusInternalServerError, models.FailureResponse{Message: err.Error()})
		return
	}

	if pi.LastResponse != nil && len(pi.LastResponse.RawJSON) > 0 {
		c.Data(http.StatusOK, "application/json; charset=utf-8", pi.LastResponse.RawJSON)
		return
	}
	c.JSON(http.StatusOK, pi)
}
