package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"snapsync/internal/snap"
)

// STSIdentityChecker resolves the caller identity behind the configured AWS
// credentials. Backs the check command and the /check-aws endpoint.
type STSIdentityChecker struct {
	client *sts.Client
}

// NewSTSIdentityChecker creates an identity checker from the given options.
func NewSTSIdentityChecker(ctx context.Context, opts S3Options) (*STSIdentityChecker, error) {
	cfg, err := loadAWSConfig(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &STSIdentityChecker{client: sts.NewFromConfig(cfg)}, nil
}

// CheckIdentity returns the ARN of the current caller.
func (c *STSIdentityChecker) CheckIdentity(ctx context.Context) (string, error) {
	out, err := c.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("resolving caller identity: %w", err)
	}
	return aws.ToString(out.Arn), nil
}

// Compile-time check that STSIdentityChecker implements snap.IdentityChecker
var _ snap.IdentityChecker = (*STSIdentityChecker)(nil)
