package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSMClient is the subset of the SSM API used here
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMParameterReader reads parameters from SSM Parameter Store
type SSMParameterReader struct {
	client SSMClient
}

// NewSSMParameterReader creates a new SSMParameterReader
func NewSSMParameterReader(client SSMClient) *SSMParameterReader {
	return &SSMParameterReader{client: client}
}

// GetParameter retrieves a parameter value, decrypting SecureString values
func (r *SSMParameterReader) GetParameter(ctx context.Context, name string) (string, error) {
	result, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter value is empty")
	}

	return *result.Parameter.Value, nil
}

// ParameterReader reads a single named parameter
type ParameterReader interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ResolveFallbackEmail replaces FallbackEmail with the value of
// FallbackEmailParameter when one is configured.
func (c *Config) ResolveFallbackEmail(ctx context.Context, reader ParameterReader) error {
	if c.FallbackEmailParameter == "" {
		return nil
	}

	value, err := reader.GetParameter(ctx, c.FallbackEmailParameter)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.FallbackEmailParameter, err)
	}

	c.FallbackEmail = strings.TrimSpace(value)
	return nil
}
