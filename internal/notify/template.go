package notify

import (
	"errors"
	"fmt"

	"github.com/sampleorg/sqs-encryption-remediation/internal/evaluation"
)

// Subject is used for every notification
const Subject = "SQS Queue COMPLIANCE NOTIFICATION"

// PolicyName is the policy the queue is measured against in message bodies
const PolicyName = "SampleOrg Security Policy"

// ErrNoTemplate is returned for annotations that never trigger an email
var ErrNoTemplate = errors.New("no notification template for annotation")

// Compose renders the plain-text body for an annotation. Only the two
// notifiable annotations have templates.
func Compose(annotation evaluation.Annotation, queueName, kmsKeyID string) (string, error) {
	key := "a KMS key"
	if kmsKeyID != "" {
		key = "KMS key Id " + kmsKeyID
	}

	switch annotation {
	case evaluation.AnnotationRemediationFailed:
		return fmt.Sprintf("SQS Queue %s is not in compliance with %s.\r\nEnable Server-side encryption using %s.",
			queueName, PolicyName, key), nil
	case evaluation.AnnotationAutoRemediated:
		return fmt.Sprintf("SQS Queue %s was not in compliance with %s.\r\nServer-side encryption has been enabled using %s.",
			queueName, PolicyName, key), nil
	default:
		return "", fmt.Errorf("%w %q", ErrNoTemplate, annotation)
	}
}
