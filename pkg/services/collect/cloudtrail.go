package collect

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

func (c *awsCollector) collectTrails(ctx context.Context, accountID, region string) ([]domain.Resource, error) {
	resp, err := withThrottleRetry(ctx, func() (*cloudtrail.DescribeTrailsOutput, error) {
		return c.trailClient.DescribeTrails(ctx, &cloudtrail.DescribeTrailsInput{})
	})
	if err != nil {
		return nil, fmt.Errorf("describe trails: %w", err)
	}

	// No trail at all is itself a finding: emit one synthetic account-level
	// resource so the catalogue has something to evaluate.
	if len(resp.TrailList) == 0 {
		return []domain.Resource{{
			Kind:   domain.KindAuditTrail,
			ID:     "account-" + accountID,
			Region: region,
			Attrs:  domain.Attributes{Trail: &domain.AuditTrailAttrs{Configured: false}},
		}}, nil
	}

	resources := make([]domain.Resource, 0, len(resp.TrailList))
	for _, trail := range resp.TrailList {
		status, err := withThrottleRetry(ctx, func() (*cloudtrail.GetTrailStatusOutput, error) {
			return c.trailClient.GetTrailStatus(ctx, &cloudtrail.GetTrailStatusInput{
				Name: trail.TrailARN,
			})
		})
		if err != nil {
			return nil, fmt.Errorf("get trail status %s: %w", aws.ToString(trail.Name), err)
		}

		resources = append(resources, domain.Resource{
			Kind:   domain.KindAuditTrail,
			ID:     aws.ToString(trail.Name),
			Region: region,
			Attrs: domain.Attributes{Trail: &domain.AuditTrailAttrs{
				Configured:        true,
				Logging:           aws.ToBool(status.IsLogging),
				MultiRegion:       aws.ToBool(trail.IsMultiRegionTrail),
				LogFileValidation: aws.ToBool(trail.LogFileValidationEnabled),
			}},
		})
	}
	return resources, nil
}
