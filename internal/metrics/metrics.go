// Package metrics publishes remediation outcomes to CloudWatch.
package metrics

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/sampleorg/sqs-encryption-remediation/internal/evaluation"
)

// MetricEvaluations counts reported evaluations, one datum per invocation
const MetricEvaluations = "QueueEvaluations"

// CloudWatchClient is the subset of the CloudWatch API used here
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchPublisher publishes outcome metrics to CloudWatch
type CloudWatchPublisher struct {
	client    CloudWatchClient
	namespace string
}

// NewCloudWatchPublisher creates a new CloudWatchPublisher
func NewCloudWatchPublisher(client CloudWatchClient, namespace string) *CloudWatchPublisher {
	return &CloudWatchPublisher{
		client:    client,
		namespace: namespace,
	}
}

// PublishOutcome records one evaluation, dimensioned by verdict and annotation
func (p *CloudWatchPublisher) PublishOutcome(ctx context.Context, result evaluation.Result) error {
	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(p.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(MetricEvaluations),
				Dimensions: []types.Dimension{
					{Name: aws.String("ComplianceType"), Value: aws.String(string(result.Compliance))},
					{Name: aws.String("Annotation"), Value: aws.String(string(result.Annotation))},
				},
				Value: aws.Float64(1),
				Unit:  types.StandardUnitCount,
			},
		},
	})
	return err
}
