package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/sampleorg/sqs-encryption-remediation/internal/evaluation"
)

type mockCloudWatchClient struct {
	input *cloudwatch.PutMetricDataInput
	err   error
}

func (m *mockCloudWatchClient) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.input = params
	return &cloudwatch.PutMetricDataOutput{}, m.err
}

func TestPublishOutcome(t *testing.T) {
	mock := &mockCloudWatchClient{}
	publisher := NewCloudWatchPublisher(mock, "Compliance/SQS")

	if err := publisher.PublishOutcome(context.Background(), evaluation.Remediated); err != nil {
		t.Fatalf("PublishOutcome returned error: %v", err)
	}

	if aws.ToString(mock.input.Namespace) != "Compliance/SQS" {
		t.Errorf("expected namespace 'Compliance/SQS', got %q", aws.ToString(mock.input.Namespace))
	}
	if len(mock.input.MetricData) != 1 {
		t.Fatalf("expected 1 datum, got %d", len(mock.input.MetricData))
	}

	datum := mock.input.MetricData[0]
	if aws.ToString(datum.MetricName) != MetricEvaluations {
		t.Errorf("expected metric name %q, got %q", MetricEvaluations, aws.ToString(datum.MetricName))
	}
	if aws.ToFloat64(datum.Value) != 1 {
		t.Errorf("expected value 1, got %f", aws.ToFloat64(datum.Value))
	}
	if datum.Unit != types.StandardUnitCount {
		t.Errorf("expected unit Count, got %s", datum.Unit)
	}

	dims := make(map[string]string)
	for _, d := range datum.Dimensions {
		dims[aws.ToString(d.Name)] = aws.ToString(d.Value)
	}
	if dims["ComplianceType"] != "COMPLIANT" {
		t.Errorf("expected ComplianceType dimension 'COMPLIANT', got %q", dims["ComplianceType"])
	}
	if dims["Annotation"] != "AutoRemediated" {
		t.Errorf("expected Annotation dimension 'AutoRemediated', got %q", dims["Annotation"])
	}
}

func TestPublishOutcome_Error(t *testing.T) {
	publisher := NewCloudWatchPublisher(&mockCloudWatchClient{err: errors.New("Throttling")}, "ns")

	if err := publisher.PublishOutcome(context.Background(), evaluation.NotApplicable); err == nil {
		t.Fatal("expected error when CloudWatch fails, got nil")
	}
}
