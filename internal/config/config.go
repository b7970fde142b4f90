// Package config reads the Lambda's environment configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sampleorg/sqs-encryption-remediation/internal/logging"
)

// Environment variable names
const (
	EnvLogLevel               = "LOG_LEVEL"
	EnvSendEmail              = "SEND_EMAIL"
	EnvFallbackEmail          = "FALLBACK_EMAIL"
	EnvFallbackEmailParameter = "FALLBACK_EMAIL_PARAMETER"
	EnvMetricNamespace        = "METRIC_NAMESPACE"
	EnvVerifyKMSKey           = "VERIFY_KMS_KEY"
)

// Config holds application configuration
type Config struct {
	LogLevel               slog.Level
	SendEmail              bool
	FallbackEmail          string
	FallbackEmailParameter string
	MetricNamespace        string
	VerifyKMSKey           bool
}

// Load builds a Config from getenv (normally os.Getenv).
// Only LOG_LEVEL can fail; the fallback address is validated when used.
func Load(getenv func(string) string) (Config, error) {
	level, err := logging.ParseLevel(getenv(EnvLogLevel))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
	}

	return Config{
		LogLevel:               level,
		SendEmail:              isTrue(getenv(EnvSendEmail)),
		FallbackEmail:          strings.TrimSpace(getenv(EnvFallbackEmail)),
		FallbackEmailParameter: getenv(EnvFallbackEmailParameter),
		MetricNamespace:        getenv(EnvMetricNamespace),
		VerifyKMSKey:           isTrue(getenv(EnvVerifyKMSKey)),
	}, nil
}

func isTrue(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}
