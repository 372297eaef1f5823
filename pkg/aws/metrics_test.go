package aws

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMetricsAPI struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeMetricsAPI) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestRecordCount_AddsServiceDimension(t *testing.T) {
	api := &fakeMetricsAPI{}
	m := newMetricsClient(api, "", true)

	require.NoError(t, m.RecordCount(testContext(t), MetricWebhookReceived, map[string]string{"EventType": "payment_intent.succeeded"}))

	require.Len(t, api.inputs, 1)
	in := api.inputs[0]
	assert.Equal(t, "PaymentGateway", aws.ToString(in.Namespace))
	datum := in.MetricData[0]
	assert.Equal(t, MetricWebhookReceived, aws.ToString(datum.MetricName))
	assert.Equal(t, types.StandardUnitCount, datum.Unit)
	require.Len(t, datum.Dimensions, 2)
	assert.Equal(t, "EventType", aws.ToString(datum.Dimensions[0].Name))
	assert.Equal(t, "Service", aws.ToString(datum.Dimensions[1].Name))
	assert.Equal(t, "payment-gateway", aws.ToString(datum.Dimensions[1].Value))
}

func TestRecordCount_DisabledSendsNothing(t *testing.T) {
	api := &fakeMetricsAPI{}
	m := newMetricsClient(api, "Custom", false)

	require.NoError(t, m.RecordCount(testContext(t), MetricPaymentIntentCreated, nil))

	assert.Empty(t, api.inputs)
}
