package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	configtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/google/uuid"
	"github.com/jarrod-lowe/jmap-service-libs/awsinit"
	"github.com/jarrod-lowe/jmap-service-libs/tracing"

	"github.com/sampleorg/sqs-encryption-remediation/internal/config"
	"github.com/sampleorg/sqs-encryption-remediation/internal/configevent"
	"github.com/sampleorg/sqs-encryption-remediation/internal/evaluation"
	"github.com/sampleorg/sqs-encryption-remediation/internal/keycheck"
	"github.com/sampleorg/sqs-encryption-remediation/internal/logging"
	"github.com/sampleorg/sqs-encryption-remediation/internal/metrics"
	"github.com/sampleorg/sqs-encryption-remediation/internal/notify"
	"github.com/sampleorg/sqs-encryption-remediation/internal/queue"
	queuetrace "github.com/sampleorg/sqs-encryption-remediation/internal/tracing"
)

const functionName = "sqs-encryption-remediation"

var logger = logging.New(slog.LevelInfo)

// QueueService evaluates and remediates queue encryption
type QueueService interface {
	Evaluate(ctx context.Context, queueURL string) (configtypes.ComplianceType, error)
	Remediate(ctx context.Context, queueURL, kmsKeyID string) error
}

// EvaluationReporter delivers the verdict to AWS Config
type EvaluationReporter interface {
	Report(ctx context.Context, eval evaluation.Evaluation, resultToken string) error
}

// OwnerNotifier emails the queue owner
type OwnerNotifier interface {
	Notify(ctx context.Context, queueURL string, annotation evaluation.Annotation, kmsKeyID string) (string, error)
}

// KeyVerifier checks a KMS key before it is applied
type KeyVerifier interface {
	Verify(ctx context.Context, keyID string) error
}

// MetricsPublisher records evaluation outcomes
type MetricsPublisher interface {
	PublishOutcome(ctx context.Context, result evaluation.Result) error
}

// Dependencies for handler (injectable for testing).
// KeyVerifier and Metrics are optional.
type Dependencies struct {
	Queue       QueueService
	Reporter    EvaluationReporter
	Notifier    OwnerNotifier
	KeyVerifier KeyVerifier
	Metrics     MetricsPublisher
	SendEmail   bool
	Now         func() time.Time
}

var deps *Dependencies

// Outcome summarises what one invocation did
type Outcome struct {
	Plan     configevent.Plan
	Result   evaluation.Result
	Reported bool
	Notified bool
}

// handler is the Lambda entry point
func handler(ctx context.Context, event events.ConfigEvent) error {
	ctx, span := tracing.StartHandlerSpan(ctx, "SQSEncryptionRemediationHandler",
		tracing.Function(functionName),
		tracing.RequestID(requestID(ctx)),
	)
	defer span.End()

	outcome, err := remediate(ctx, event)
	if err != nil {
		tracing.RecordError(span, err)
		return err
	}

	span.SetAttributes(queuetrace.MessageType(outcome.Plan.MessageType))
	if outcome.Reported {
		span.SetAttributes(
			queuetrace.QueueURL(outcome.Plan.Item.ResourceID),
			queuetrace.ResourceType(outcome.Plan.Item.ResourceType),
			queuetrace.ComplianceType(string(outcome.Result.Compliance)),
			queuetrace.Annotation(string(outcome.Result.Annotation)),
		)
	}
	return nil
}

// remediate runs one invocation: classify, evaluate, remediate, report, notify.
// Only a failure to read the queue's attributes is returned as an error.
func remediate(ctx context.Context, event events.ConfigEvent) (*Outcome, error) {
	plan := configevent.NewPlan(event)
	outcome := &Outcome{Plan: plan}

	logger.DebugContext(ctx, "Received config rule invocation",
		slog.String("config_rule_name", event.ConfigRuleName),
		slog.String("invoking_event", event.InvokingEvent),
		slog.Bool("event_left_scope", event.EventLeftScope),
	)

	switch plan.Action {
	case configevent.ActionIgnore:
		logger.InfoContext(ctx, "Event not evaluated",
			slog.String("message_type", plan.MessageType),
			slog.String("reason", plan.Reason),
		)
		return outcome, nil
	case configevent.ActionNotApplicable:
		logger.InfoContext(ctx, "Resource not applicable",
			slog.String("resource_id", plan.Item.ResourceID),
			slog.String("resource_type", plan.Item.ResourceType),
			slog.String("reason", plan.Reason),
		)
		outcome.Result = evaluation.NotApplicable
	case configevent.ActionEvaluate:
		result, err := evaluateAndRemediate(ctx, plan)
		if err != nil {
			return outcome, err
		}
		outcome.Result = result
	default:
		return outcome, fmt.Errorf("unhandled plan action %s", plan.Action)
	}

	report(ctx, plan, outcome.Result)
	outcome.Reported = true

	publishOutcome(ctx, outcome.Result)

	if deps.SendEmail && outcome.Result.Annotation.Notifiable() {
		outcome.Notified = notifyOwner(ctx, plan, outcome.Result.Annotation)
	}

	return outcome, nil
}

// evaluateAndRemediate checks the queue and applies the rule's KMS key when
// it is unencrypted
func evaluateAndRemediate(ctx context.Context, plan configevent.Plan) (evaluation.Result, error) {
	queueURL := plan.Item.ResourceID

	compliance, err := deps.Queue.Evaluate(ctx, queueURL)
	if err != nil {
		logger.ErrorContext(ctx, "Could not evaluate compliance of queue",
			slog.String("queue_url", queueURL),
			slog.String("error", err.Error()),
		)
		return evaluation.Result{}, fmt.Errorf("failed to evaluate queue: %w", err)
	}

	logger.InfoContext(ctx, "Queue evaluated",
		slog.String("queue_url", queueURL),
		slog.String("compliance_type", string(compliance)),
	)

	if compliance == configtypes.ComplianceTypeCompliant {
		return evaluation.AlreadyCompliant, nil
	}

	if !plan.HasRuleParameters {
		logger.WarnContext(ctx, "No rule parameters, queue left unencrypted",
			slog.String("queue_url", queueURL),
		)
		return evaluation.RemediationFailed, nil
	}

	if plan.KMSKeyID == "" {
		logger.ErrorContext(ctx, "Rule parameters have no KmsKeyId, queue left unencrypted",
			slog.String("queue_url", queueURL),
		)
		return evaluation.RemediationFailed, nil
	}

	if deps.KeyVerifier != nil {
		if err := deps.KeyVerifier.Verify(ctx, plan.KMSKeyID); err != nil {
			logger.ErrorContext(ctx, "KMS key cannot be used for remediation",
				slog.String("queue_url", queueURL),
				slog.String("kms_key_id", plan.KMSKeyID),
				slog.String("error", err.Error()),
			)
			return evaluation.RemediationFailed, nil
		}
	}

	stepCtx, span := queuetrace.StartStepSpan(ctx, "RemediateQueue", queuetrace.QueueURL(queueURL))
	defer span.End()

	if err := deps.Queue.Remediate(stepCtx, queueURL, plan.KMSKeyID); err != nil {
		tracing.RecordError(span, err)
		logger.ErrorContext(ctx, "Failed to enable KMS encryption on queue",
			slog.String("queue_url", queueURL),
			slog.String("kms_key_id", plan.KMSKeyID),
			slog.String("error", err.Error()),
		)
		return evaluation.RemediationFailed, nil
	}

	logger.InfoContext(ctx, "Queue is now COMPLIANT after remediation",
		slog.String("queue_url", queueURL),
		slog.String("kms_key_id", plan.KMSKeyID),
	)
	return evaluation.Remediated, nil
}

// report delivers the verdict to AWS Config; failures are logged only
func report(ctx context.Context, plan configevent.Plan, result evaluation.Result) {
	orderingTimestamp, err := plan.Item.CapturedAt()
	if err != nil {
		orderingTimestamp = deps.now()
		logger.WarnContext(ctx, "Using invocation time as ordering timestamp",
			slog.String("resource_id", plan.Item.ResourceID),
			slog.String("error", err.Error()),
		)
	}

	eval := evaluation.Evaluation{
		ResourceType:      plan.Item.ResourceType,
		ResourceID:        plan.Item.ResourceID,
		OrderingTimestamp: orderingTimestamp,
		Result:            result,
	}

	if err := deps.Reporter.Report(ctx, eval, plan.ResultToken); err != nil {
		logger.ErrorContext(ctx, "Failed to update config rule",
			slog.String("resource_id", plan.Item.ResourceID),
			slog.String("error", err.Error()),
		)
		return
	}

	logger.InfoContext(ctx, "Successfully updated config rule",
		slog.String("resource_id", plan.Item.ResourceID),
		slog.String("compliance_type", string(result.Compliance)),
		slog.String("annotation", string(result.Annotation)),
	)
}

func publishOutcome(ctx context.Context, result evaluation.Result) {
	if deps.Metrics == nil {
		return
	}
	if err := deps.Metrics.PublishOutcome(ctx, result); err != nil {
		logger.WarnContext(ctx, "Failed to publish outcome metric",
			slog.String("error", err.Error()),
		)
	}
}

// notifyOwner emails the owner; no failure here fails the invocation
func notifyOwner(ctx context.Context, plan configevent.Plan, annotation evaluation.Annotation) bool {
	address, err := deps.Notifier.Notify(ctx, plan.Item.ResourceID, annotation, plan.KMSKeyID)
	if err != nil {
		attrs := []any{
			slog.String("queue_url", plan.Item.ResourceID),
			slog.String("annotation", string(annotation)),
			slog.String("error", err.Error()),
		}
		switch {
		case errors.Is(err, notify.ErrEmailNotFound):
			logger.WarnContext(ctx, "No valid contact email for queue", attrs...)
		case errors.Is(err, notify.ErrNoTemplate):
			logger.ErrorContext(ctx, "No notification template for annotation", attrs...)
		default:
			logger.ErrorContext(ctx, "Failed to send email", append(attrs, slog.String("email", address))...)
		}
		return false
	}

	logger.InfoContext(ctx, "Email sent successfully",
		slog.String("email", address),
		slog.String("annotation", string(annotation)),
	)
	return true
}

func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// requestID returns the Lambda request id, or a fresh id outside Lambda
func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		logger.Error("FATAL: Invalid configuration",
			slog.String("error", err.Error()),
		)
		panic(err)
	}
	logger = logging.New(cfg.LogLevel)

	result, err := awsinit.Init(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to initialize AWS",
			slog.String("error", err.Error()),
		)
		panic(err)
	}
	defer result.Cleanup()

	initCtx, coldStartSpan := tracing.StartColdStartSpan(result.Ctx, functionName)

	if err := cfg.ResolveFallbackEmail(initCtx, config.NewSSMParameterReader(ssm.NewFromConfig(result.Config))); err != nil {
		logger.Error("FATAL: Failed to read fallback email parameter",
			slog.String("parameter", cfg.FallbackEmailParameter),
			slog.String("error", err.Error()),
		)
		panic(err)
	}

	queueClient := queue.NewClient(sqs.NewFromConfig(result.Config))

	deps = &Dependencies{
		Queue:     queueClient,
		Reporter:  evaluation.NewConfigReporter(configservice.NewFromConfig(result.Config)),
		Notifier:  notify.NewNotifier(queueClient, ses.NewFromConfig(result.Config), cfg.FallbackEmail, logger),
		SendEmail: cfg.SendEmail,
	}
	if cfg.VerifyKMSKey {
		deps.KeyVerifier = keycheck.NewVerifier(kms.NewFromConfig(result.Config))
	}
	if cfg.MetricNamespace != "" {
		deps.Metrics = metrics.NewCloudWatchPublisher(cloudwatch.NewFromConfig(result.Config), cfg.MetricNamespace)
	}

	logger.Info("Remediation handler initialised",
		slog.Bool("send_email", cfg.SendEmail),
		slog.Bool("verify_kms_key", cfg.VerifyKMSKey),
		slog.Bool("metrics_enabled", deps.Metrics != nil),
	)
	coldStartSpan.End()

	result.Start(handler)
}
