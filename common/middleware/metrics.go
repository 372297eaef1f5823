package middleware

import (
	"context"
	"time"

	awspkg "payment-gateway/pkg/aws"

	"github.com/gin-gonic/gin"
)

// OutcomeKey is set by payment handlers to "succeeded" or "failed". Failed
// payments answer 200, so the status alone cannot tell them apart.
const OutcomeKey = "payment_outcome"

// MetricsMiddleware records request count, latency and error counters per
// route template. Data points are sent from a goroutine so CloudWatch latency
// never reaches the caller.
func MetricsMiddleware(metrics awspkg.MetricsRecorder, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil || !metrics.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		dimensions := requestDimensions(c, serviceName, statusCode)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_ = metrics.RecordCount(ctx, awspkg.MetricHTTPRequests, dimensions)
			_ = metrics.RecordLatency(ctx, awspkg.MetricHTTPLatency, duration, dimensions)

			switch {
			case statusCode >= 500:
				_ = metrics.RecordCount(ctx, awspkg.MetricHTTPErrors, dimensions)
				_ = metrics.RecordCount(ctx, awspkg.MetricHTTP5xx, dimensions)
			case statusCode >= 400:
				_ = metrics.RecordCount(ctx, awspkg.MetricHTTPErrors, dimensions)
				_ = metrics.RecordCount(ctx, awspkg.MetricHTTP4xx, dimensions)
			}
		}()
	}
}

func requestDimensions(c *gin.Context, serviceName string, statusCode int) map[string]string {
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	dims := map[string]string{
		"Service": serviceName,
		"Method":  c.Request.Method,
		"Route":   route,
		"Status":  statusCodeToRange(statusCode),
	}
	if outcome := c.GetString(OutcomeKey); outcome != "" {
		dims["Outcome"] = outcome
	}
	return dims
}

func statusCodeToRange(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "5xx"
	case statusCode >= 400:
		return "4xx"
	case statusCode >= 300:
		return "3xx"
	case statusCode >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}
