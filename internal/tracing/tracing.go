// Package tracing adds queue and compliance attributes and per-step spans on
// top of the shared Lambda tracing helpers in jmap-service-libs.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "sqs-encryption-remediation"

// QueueURL returns the queue URL attribute
func QueueURL(url string) attribute.KeyValue {
	return attribute.String("queue.url", url)
}

// ResourceType returns the AWS Config resource type attribute
func ResourceType(resourceType string) attribute.KeyValue {
	return attribute.String("config.resource_type", resourceType)
}

// MessageType returns the AWS Config message type attribute
func MessageType(messageType string) attribute.KeyValue {
	return attribute.String("config.message_type", messageType)
}

// ComplianceType returns the compliance verdict attribute
func ComplianceType(compliance string) attribute.KeyValue {
	return attribute.String("compliance.type", compliance)
}

// Annotation returns the remediation annotation attribute
func Annotation(annotation string) attribute.KeyValue {
	return attribute.String("compliance.annotation", annotation)
}

// StartStepSpan starts a child span for one collaborator call
func StartStepSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}
