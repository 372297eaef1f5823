package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = int64(65536)

// StripeWebhook verifies and dispatches a Stripe event. Only verification
// failures are reported back to Stripe; everything after that is logged.
func (pc *PaymentController) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "Webhook Error: %s", err.Error())
		return
	}

	if _, err := pc.Webhooks.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		c.String(http.StatusBadRequest, "Webhook Error: %s", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
