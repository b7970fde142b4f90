// Package notify emails queue owners about remediation outcomes.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/sampleorg/sqs-encryption-remediation/internal/evaluation"
	"github.com/sampleorg/sqs-encryption-remediation/internal/queue"
)

const charset = "UTF-8"

// TagLister returns a queue's tags
type TagLister interface {
	Tags(ctx context.Context, queueURL string) (map[string]string, error)
}

// SESClient is the subset of the SES API used here
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Notifier resolves the owner of a queue and emails them
type Notifier struct {
	tags     TagLister
	ses      SESClient
	fallback string
	logger   *slog.Logger
}

// NewNotifier creates a new Notifier. fallback is validated when used.
func NewNotifier(tags TagLister, client SESClient, fallback string, logger *slog.Logger) *Notifier {
	return &Notifier{
		tags:     tags,
		ses:      client,
		fallback: fallback,
		logger:   logger,
	}
}

// ResolveContact returns the queue's owner_email tag when valid, otherwise the
// fallback address. Tag lookup failures are logged and fall through to the
// fallback.
func (n *Notifier) ResolveContact(ctx context.Context, queueURL string) (string, error) {
	tags, err := n.tags.Tags(ctx, queueURL)
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to get valid email from queue tags",
			slog.String("queue_url", queueURL),
			slog.String("error", err.Error()),
		)
	} else if address, ok := contactFromTags(tags); ok {
		n.logger.InfoContext(ctx, "Valid owner email found on queue",
			slog.String("queue_name", queue.Name(queueURL)),
		)
		return address, nil
	}

	if !ValidEmail(n.fallback) {
		return "", ErrEmailNotFound
	}

	n.logger.InfoContext(ctx, "Fallback email will be used",
		slog.String("queue_name", queue.Name(queueURL)),
	)
	return n.fallback, nil
}

// Notify emails the queue owner about annotation and returns the address used.
// The body is composed before anything is looked up, so an annotation
// without a template fails without calling AWS.
func (n *Notifier) Notify(ctx context.Context, queueURL string, annotation evaluation.Annotation, kmsKeyID string) (string, error) {
	body, err := Compose(annotation, queue.Name(queueURL), kmsKeyID)
	if err != nil {
		return "", err
	}

	address, err := n.ResolveContact(ctx, queueURL)
	if err != nil {
		return "", err
	}

	if err := n.Send(ctx, address, body); err != nil {
		return address, fmt.Errorf("failed to send email to %s: %w", address, err)
	}
	return address, nil
}

// Send delivers a plain-text notification; the address is both sender and
// recipient.
func (n *Notifier) Send(ctx context.Context, address, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(address),
		Destination: &types.Destination{
			ToAddresses: []string{address},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Charset: aws.String(charset),
				Data:    aws.String(Subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Charset: aws.String(charset),
					Data:    aws.String(body),
				},
			},
		},
	})
	return err
}
