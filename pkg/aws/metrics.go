package aws

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricsRecorder is what handlers and services record through.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
	IsEnabled() bool
}

type metricsAPI interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// MetricsClient wraps CloudWatch PutMetricData. A nil or disabled client
// drops every data point. Every datum carries a Service dimension.
type MetricsClient struct {
	api       metricsAPI
	namespace string
	service   string
	enabled   bool
}

func NewMetricsClient(cfg aws.Config, namespace string, enabled bool) *MetricsClient {
	return newMetricsClient(cloudwatch.NewFromConfig(cfg), namespace, enabled)
}

func newMetricsClient(api metricsAPI, namespace string, enabled bool) *MetricsClient {
	if namespace == "" {
		namespace = "PaymentGateway"
	}
	return &MetricsClient{api: api, namespace: namespace, service: "payment-gateway", enabled: enabled}
}

// PutMetric sends one data point.
func (m *MetricsClient) PutMetric(ctx context.Context, metricName string, value float64, unit types.StandardUnit, dimensions map[string]string) error {
	if !m.IsEnabled() {
		return nil
	}

	_, err := m.api.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{{
			MetricName: aws.String(metricName),
			Value:      aws.Float64(value),
			Unit:       unit,
			Timestamp:  aws.Time(time.Now()),
			Dimensions: m.dimensions(dimensions),
		}},
	})
	if err != nil {
		return fmt.Errorf("put metric %s: %w", metricName, err)
	}
	return nil
}

// dimensions returns the caller's dimensions plus Service, sorted by name.
func (m *MetricsClient) dimensions(extra map[string]string) []types.Dimension {
	names := make([]string, 0, len(extra)+1)
	values := map[string]string{"Service": m.service}
	names = append(names, "Service")
	for k, v := range extra {
		if k == "Service" {
			values[k] = v
			continue
		}
		names = append(names, k)
		values[k] = v
	}
	sort.Strings(names)

	dims := make([]types.Dimension, 0, len(names))
	for _, n := range names {
		dims = append(dims, types.Dimension{Name: aws.String(n), Value: aws.String(values[n])})
	}
	return dims
}

// RecordCount increments a counter metric
func (m *MetricsClient) RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error {
	return m.PutMetric(ctx, metricName, 1, types.StandardUnitCount, dimensions)
}

// RecordLatency records a duration in milliseconds
func (m *MetricsClient) RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error {
	return m.PutMetric(ctx, metricName, float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
}

func (m *MetricsClient) IsEnabled() bool {
	return m != nil && m.enabled
}

const (
	// HTTP metrics
	MetricHTTPRequests = "HTTPRequests"
	MetricHTTPErrors   = "HTTPErrors"
	MetricHTTPLatency  = "HTTPLatency"
	MetricHTTP4xx      = "HTTP4xxErrors"
	MetricHTTP5xx      = "HTTP5xxErrors"

	// Business metrics
	MetricPaymentIntentCreated = "PaymentIntentCreated"
	MetricPaymentIntentFailed  = "PaymentIntentFailed"
	MetricCustomerCreated      = "CustomerCreated"
	MetricGuestCheckout        = "GuestCheckout"
	MetricWebhookReceived      = "WebhookReceived"
	MetricWebhookRejected      = "WebhookRejected"
)
