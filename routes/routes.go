package routes

import (
	"net/http"

	"payment-gateway/controllers"
	"payment-gateway/middleware"

	"github.com/gin-gonic/gin"
)

const serviceName = "payment-gateway"

func RegisterPaymentRoutes(r *gin.Engine, pc *controllers.PaymentController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})

	payments := r.Group("/")
	payments.Use(middleware.BearerToken())
	payments.POST("/payment-intent-v4", pc.CreatePaymentIntentV4)
	payments.POST("/payment-intent", pc.CreatePaymentIntent)
	payments.POST("/payment", pc.CreatePayment)
	payments.POST("/payment-intent-v2", pc.CreatePaymentIntentV2)
	payments.POST("/payment-intent-v3", pc.CreatePaymentIntentV3)
	payments.GET("/payment-intent/:id", pc.GetPaymentIntent)

	// Stripe webhook (raw body, no auth)
	r.POST("/webhook", pc.StripeWebhook)
}
