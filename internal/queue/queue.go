// Package queue reads and changes the server-side encryption settings of
// SQS queues.
package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	configtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSClient is the subset of the SQS API used here
type SQSClient interface {
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
	SetQueueAttributes(ctx context.Context, params *sqs.SetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.SetQueueAttributesOutput, error)
	ListQueueTags(ctx context.Context, params *sqs.ListQueueTagsInput, optFns ...func(*sqs.Options)) (*sqs.ListQueueTagsOutput, error)
}

// Client checks and remediates queue encryption
type Client struct {
	sqs SQSClient
}

// NewClient creates a new Client
func NewClient(client SQSClient) *Client {
	return &Client{sqs: client}
}

// Evaluate returns COMPLIANT when the queue has a non-empty KmsMasterKeyId
func (c *Client) Evaluate(ctx context.Context, queueURL string) (configtypes.ComplianceType, error) {
	output, err := c.sqs.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(queueURL),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameKmsMasterKeyId},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get attributes of %s: %w", queueURL, err)
	}

	if output != nil && output.Attributes[string(types.QueueAttributeNameKmsMasterKeyId)] != "" {
		return configtypes.ComplianceTypeCompliant, nil
	}
	return configtypes.ComplianceTypeNonCompliant, nil
}

// Remediate enables SSE-KMS on the queue with the given key
func (c *Client) Remediate(ctx context.Context, queueURL, kmsKeyID string) error {
	if kmsKeyID == "" {
		return fmt.Errorf("no KMS key id given for %s", queueURL)
	}

	_, err := c.sqs.SetQueueAttributes(ctx, &sqs.SetQueueAttributesInput{
		QueueUrl: aws.String(queueURL),
		Attributes: map[string]string{
			string(types.QueueAttributeNameKmsMasterKeyId): kmsKeyID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to set KMS key on %s: %w", queueURL, err)
	}
	return nil
}

// Tags returns the queue's tags
func (c *Client) Tags(ctx context.Context, queueURL string) (map[string]string, error) {
	output, err := c.sqs.ListQueueTags(ctx, &sqs.ListQueueTagsInput{
		QueueUrl: aws.String(queueURL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags of %s: %w", queueURL, err)
	}
	if output == nil {
		return map[string]string{}, nil
	}
	return output.Tags, nil
}

// Name extracts the queue name from a queue URL
func Name(queueURL string) string {
	if i := strings.LastIndex(queueURL, "/"); i >= 0 {
		return queueURL[i+1:]
	}
	return queueURL
}
