// Package keycheck confirms a KMS key can be used for SQS server-side
// encryption before it is applied.
package keycheck

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
)

// ErrKeyUnusable is wrapped by every rejection Verify returns
var ErrKeyUnusable = errors.New("kms key unusable for queue encryption")

// KMSClient is the subset of the KMS API used here
type KMSClient interface {
	DescribeKey(ctx context.Context, params *kms.DescribeKeyInput, optFns ...func(*kms.Options)) (*kms.DescribeKeyOutput, error)
}

// Verifier checks keys with KMS DescribeKey
type Verifier struct {
	client KMSClient
}

// NewVerifier creates a new Verifier
func NewVerifier(client KMSClient) *Verifier {
	return &Verifier{client: client}
}

// Verify accepts key ids, key ARNs, alias names and alias ARNs.
// The key must be enabled and be a symmetric encrypt/decrypt key.
func (v *Verifier) Verify(ctx context.Context, keyID string) error {
	output, err := v.client.DescribeKey(ctx, &kms.DescribeKeyInput{
		KeyId: aws.String(keyID),
	})
	if err != nil {
		return fmt.Errorf("failed to describe key %s: %w", keyID, err)
	}
	if output == nil || output.KeyMetadata == nil {
		return fmt.Errorf("%w: %s has no metadata", ErrKeyUnusable, keyID)
	}

	metadata := output.KeyMetadata
	if metadata.KeyState != types.KeyStateEnabled {
		return fmt.Errorf("%w: %s is %s", ErrKeyUnusable, keyID, metadata.KeyState)
	}
	if metadata.KeyUsage != "" && metadata.KeyUsage != types.KeyUsageTypeEncryptDecrypt {
		return fmt.Errorf("%w: %s has usage %s", ErrKeyUnusable, keyID, metadata.KeyUsage)
	}
	if metadata.KeySpec != "" && metadata.KeySpec != types.KeySpecSymmetricDefault {
		return fmt.Errorf("%w: %s has spec %s", ErrKeyUnusable, keyID, metadata.KeySpec)
	}

	return nil
}
