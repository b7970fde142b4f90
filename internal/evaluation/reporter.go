package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/configservice/types"
)

// TestModeToken is the result token AWS Config sends for test invocations
const TestModeToken = "TESTMODE"

// ConfigClient is the subset of the AWS Config API used here
type ConfigClient interface {
	PutEvaluations(ctx context.Context, params *configservice.PutEvaluationsInput, optFns ...func(*configservice.Options)) (*configservice.PutEvaluationsOutput, error)
}

// Evaluation is one resource verdict to report
type Evaluation struct {
	ResourceType      string
	ResourceID        string
	OrderingTimestamp time.Time
	Result            Result
}

// ConfigReporter reports evaluations to AWS Config
type ConfigReporter struct {
	client ConfigClient
}

// NewConfigReporter creates a new ConfigReporter
func NewConfigReporter(client ConfigClient) *ConfigReporter {
	return &ConfigReporter{client: client}
}

// Report sends a single evaluation tagged with the invocation's result token.
// Evaluations rejected by Config are returned as an error.
func (r *ConfigReporter) Report(ctx context.Context, eval Evaluation, resultToken string) error {
	input := &configservice.PutEvaluationsInput{
		ResultToken: aws.String(resultToken),
		Evaluations: []types.Evaluation{
			{
				ComplianceResourceType: aws.String(eval.ResourceType),
				ComplianceResourceId:   aws.String(eval.ResourceID),
				ComplianceType:         eval.Result.Compliance,
				Annotation:             aws.String(string(eval.Result.Annotation)),
				OrderingTimestamp:      aws.Time(eval.OrderingTimestamp),
			},
		},
	}
	if resultToken == TestModeToken {
		input.TestMode = aws.Bool(true)
	}

	output, err := r.client.PutEvaluations(ctx, input)
	if err != nil {
		return err
	}

	if output != nil && len(output.FailedEvaluations) > 0 {
		return fmt.Errorf("config rejected %d evaluation(s) for %s", len(output.FailedEvaluations), eval.ResourceID)
	}

	return nil
}
