package collect

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

func (c *awsCollector) collectDatabases(ctx context.Context, region string) ([]domain.Resource, error) {
	var resources []domain.Resource

	pager := rds.NewDescribeDBInstancesPaginator(c.rdsClient, &rds.DescribeDBInstancesInput{})
	for pager.HasMorePages() {
		page, err := withThrottleRetry(ctx, func() (*rds.DescribeDBInstancesOutput, error) {
			return pager.NextPage(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("describe db instances: %w", err)
		}

		for _, instance := range page.DBInstances {
			resources = append(resources, domain.Resource{
				Kind:   domain.KindManagedDatabase,
				ID:     aws.ToString(instance.DBInstanceIdentifier),
				Region: region,
				Attrs: domain.Attributes{Database: &domain.ManagedDatabaseAttrs{
					Engine:              aws.ToString(instance.Engine),
					StorageEncrypted:    aws.ToBool(instance.StorageEncrypted),
					PubliclyAccessible:  aws.ToBool(instance.PubliclyAccessible),
					BackupRetentionDays: aws.ToInt32(instance.BackupRetentionPeriod),
					DeletionProtection:  aws.ToBool(instance.DeletionProtection),
				}},
			})
		}
	}

	return resources, nil
}
