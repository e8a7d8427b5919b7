package collect

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

func (c *awsCollector) collectBuckets(ctx context.Context, region string) ([]domain.Resource, error) {
	resp, err := withThrottleRetry(ctx, func() (*s3.ListBucketsOutput, error) {
		return c.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	})
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	resources := make([]domain.Resource, 0, len(resp.Buckets))
	for _, bucket := range resp.Buckets {
		name := aws.ToString(bucket.Name)

		attrs := &domain.StorageBucketAttrs{}
		if err := c.describeBucket(ctx, name, attrs); err != nil {
			return nil, fmt.Errorf("describe bucket %s: %w", name, err)
		}

		resources = append(resources, domain.Resource{
			Kind:   domain.KindStorageBucket,
			ID:     name,
			Region: region,
			Attrs:  domain.Attributes{Bucket: attrs},
		})
	}
	return resources, nil
}

func (c *awsCollector) describeBucket(ctx context.Context, name string, attrs *domain.StorageBucketAttrs) error {
	enc, err := withThrottleRetry(ctx, func() (*s3.GetBucketEncryptionOutput, error) {
		return c.s3Client.GetBucketEncryption(ctx, &s3.GetBucketEncryptionInput{Bucket: aws.String(name)})
	})
	switch {
	case err == nil:
		if enc.ServerSideEncryptionConfiguration != nil && len(enc.ServerSideEncryptionConfiguration.Rules) > 0 {
			rule := enc.ServerSideEncryptionConfiguration.Rules[0]
			if rule.ApplyServerSideEncryptionByDefault != nil {
				attrs.EncryptionEnabled = true
				attrs.EncryptionAlgorithm = string(rule.ApplyServerSideEncryptionByDefault.SSEAlgorithm)
			}
		}
	case isErrorCode(err, "ServerSideEncryptionConfigurationNotFoundError"):
		// encryption stays disabled
	default:
		return err
	}

	pab, err := withThrottleRetry(ctx, func() (*s3.GetPublicAccessBlockOutput, error) {
		return c.s3Client.GetPublicAccessBlock(ctx, &s3.GetPublicAccessBlockInput{Bucket: aws.String(name)})
	})
	switch {
	case err == nil:
		cfg := pab.PublicAccessBlockConfiguration
		attrs.PublicAccessBlocked = cfg != nil &&
			aws.ToBool(cfg.BlockPublicAcls) &&
			aws.ToBool(cfg.IgnorePublicAcls) &&
			aws.ToBool(cfg.BlockPublicPolicy) &&
			aws.ToBool(cfg.RestrictPublicBuckets)
	case isErrorCode(err, "NoSuchPublicAccessBlockConfiguration"):
		// no configuration means nothing is blocked
	default:
		return err
	}

	ver, err := withThrottleRetry(ctx, func() (*s3.GetBucketVersioningOutput, error) {
		return c.s3Client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{Bucket: aws.String(name)})
	})
	if err != nil {
		return err
	}
	attrs.VersioningEnabled = ver.Status == "Enabled"

	logging, err := withThrottleRetry(ctx, func() (*s3.GetBucketLoggingOutput, error) {
		return c.s3Client.GetBucketLogging(ctx, &s3.GetBucketLoggingInput{Bucket: aws.String(name)})
	})
	if err != nil {
		return err
	}
	attrs.LoggingEnabled = logging.LoggingEnabled != nil

	return nil
}

func isErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}
