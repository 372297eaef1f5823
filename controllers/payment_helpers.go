package controllers

import (
	"net/http"

	apperrors "payment-gateway/common/errors"
	"payment-gateway/common/logger"
	commonmw "payment-gateway/common/middleware"
	"payment-gateway/models"
	"payment-gateway/services"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// respondFailure answers a failed payment call. Request problems (4xx) go
// through the error middleware; processor failures answer 200 with
// success:false and the generic message. withDetail adds the processor's
// message as "error".
func (pc *PaymentController) respondFailure(c *gin.Context, err error, withDetail bool) {
	if status := apperrors.StatusCode(err); status >= 400 && status < 500 {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	pc.Logger.Error("Payment request failed",
		logger.Field(ctx),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)

	c.Set(commonmw.OutcomeKey, "failed")
	resp := models.FailureResponse{Message: models.GenericFailureMessage}
	if withDetail {
		resp.Error = services.ProcessorMessage(errorCause(err))
	}
	c.JSON(http.StatusOK, resp)
}

// respondIntent writes the legacy intent response.
func (pc *PaymentController) respondIntent(c *gin.Context, pi *stripe.PaymentIntent, err error) {
	if err != nil {
		pc.respondFailure(c, err, false)
		return
	}
	c.Set(commonmw.OutcomeKey, "succeeded")
	c.JSON(http.StatusOK, models.IntentResponse{Success: true, ID: pi.ID, ClientSecret: pi.ClientSecret})
}

// errorCause strips the application error so the shopper sees the
// processor's wording rather than ours.
func errorCause(err error) error {
	if appErr, ok := err.(*apperrors.Error); ok && appErr.Err != nil {
		return appErr.Err
	}
	return err
}
