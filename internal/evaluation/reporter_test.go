package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/configservice/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type mockConfigClient struct {
	calls  []*configservice.PutEvaluationsInput
	output *configservice.PutEvaluationsOutput
	err    error
}

func (m *mockConfigClient) PutEvaluations(ctx context.Context, params *configservice.PutEvaluationsInput, optFns ...func(*configservice.Options)) (*configservice.PutEvaluationsOutput, error) {
	m.calls = append(m.calls, params)
	if m.output == nil && m.err == nil {
		return &configservice.PutEvaluationsOutput{}, nil
	}
	return m.output, m.err
}

var capturedAt = time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC)

func testEvaluation(result Result) Evaluation {
	return Evaluation{
		ResourceType:      "AWS::SQS::Queue",
		ResourceID:        "https://sqs.us-east-1.amazonaws.com/123456789012/orders",
		OrderingTimestamp: capturedAt,
		Result:            result,
	}
}

func TestReport_SendsSingleEvaluation(t *testing.T) {
	mock := &mockConfigClient{}
	reporter := NewConfigReporter(mock)

	if err := reporter.Report(context.Background(), testEvaluation(Remediated), "token-1"); err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 PutEvaluations call, got %d", len(mock.calls))
	}

	want := &configservice.PutEvaluationsInput{
		ResultToken: aws.String("token-1"),
		Evaluations: []types.Evaluation{
			{
				ComplianceResourceType: aws.String("AWS::SQS::Queue"),
				ComplianceResourceId:   aws.String("https://sqs.us-east-1.amazonaws.com/123456789012/orders"),
				ComplianceType:         types.ComplianceTypeCompliant,
				Annotation:             aws.String("AutoRemediated"),
				OrderingTimestamp:      aws.Time(capturedAt),
			},
		},
	}
	opts := cmpopts.IgnoreUnexported(configservice.PutEvaluationsInput{}, types.Evaluation{})
	if diff := cmp.Diff(want, mock.calls[0], opts); diff != "" {
		t.Errorf("unexpected PutEvaluations input (-want +got):\n%s", diff)
	}
}

func TestReport_TestModeToken(t *testing.T) {
	mock := &mockConfigClient{}
	reporter := NewConfigReporter(mock)

	if err := reporter.Report(context.Background(), testEvaluation(NotApplicable), TestModeToken); err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	if !aws.ToBool(mock.calls[0].TestMode) {
		t.Error("expected TestMode to be set for TESTMODE token")
	}
}

func TestReport_RegularTokenIsNotTestMode(t *testing.T) {
	mock := &mockConfigClient{}
	reporter := NewConfigReporter(mock)

	if err := reporter.Report(context.Background(), testEvaluation(NotApplicable), "token"); err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	if mock.calls[0].TestMode != nil {
		t.Errorf("expected TestMode unset, got %v", *mock.calls[0].TestMode)
	}
}

func TestReport_TransportError(t *testing.T) {
	mock := &mockConfigClient{err: errors.New("InvalidResultTokenException")}
	reporter := NewConfigReporter(mock)

	if err := reporter.Report(context.Background(), testEvaluation(RemediationFailed), "token"); err == nil {
		t.Fatal("expected error when PutEvaluations fails, got nil")
	}
}

func TestReport_FailedEvaluations(t *testing.T) {
	mock := &mockConfigClient{
		output: &configservice.PutEvaluationsOutput{
			FailedEvaluations: []types.Evaluation{{ComplianceResourceId: aws.String("x")}},
		},
	}
	reporter := NewConfigReporter(mock)

	if err := reporter.Report(context.Background(), testEvaluation(RemediationFailed), "token"); err == nil {
		t.Fatal("expected error when Config rejects the evaluation, got nil")
	}
}

func TestAnnotation_Notifiable(t *testing.T) {
	tests := []struct {
		annotation Annotation
		want       bool
	}{
		{AnnotationAutoRemediated, true},
		{AnnotationRemediationFailed, true},
		{AnnotationNotApplicable, false},
		{AnnotationNoRemediationRequired, false},
		{Annotation("Other"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.annotation), func(t *testing.T) {
			if got := tt.annotation.Notifiable(); got != tt.want {
				t.Errorf("Notifiable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResultValues(t *testing.T) {
	tests := []struct {
		name       string
		result     Result
		compliance types.ComplianceType
		annotation string
	}{
		{"not applicable", NotApplicable, types.ComplianceTypeNotApplicable, "NotApplicable"},
		{"already compliant", AlreadyCompliant, types.ComplianceTypeCompliant, "No Remediation required"},
		{"remediated", Remediated, types.ComplianceTypeCompliant, "AutoRemediated"},
		{"remediation failed", RemediationFailed, types.ComplianceTypeNonCompliant, "RemediationFailed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Compliance != tt.compliance {
				t.Errorf("expected compliance %s, got %s", tt.compliance, tt.result.Compliance)
			}
			if string(tt.result.Annotation) != tt.annotation {
				t.Errorf("expected annotation %q, got %q", tt.annotation, tt.result.Annotation)
			}
		})
	}
}
