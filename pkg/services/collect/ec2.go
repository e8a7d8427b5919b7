package collect

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

func (c *awsCollector) collectSecurityGroups(ctx context.Context, region string) ([]domain.Resource, error) {
	var resources []domain.Resource

	pager := ec2.NewDescribeSecurityGroupsPaginator(c.ec2Client, &ec2.DescribeSecurityGroupsInput{})
	for pager.HasMorePages() {
		page, err := withThrottleRetry(ctx, func() (*ec2.DescribeSecurityGroupsOutput, error) {
			return pager.NextPage(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("describe security groups: %w", err)
		}

		for _, sg := range page.SecurityGroups {
			attrs := &domain.NetworkRuleAttrs{
				GroupName: aws.ToString(sg.GroupName),
			}
			for _, perm := range sg.IpPermissions {
				protocol := aws.ToString(perm.IpProtocol)
				from := aws.ToInt32(perm.FromPort)
				to := aws.ToInt32(perm.ToPort)
				for _, r := range perm.IpRanges {
					attrs.Ingress = append(attrs.Ingress, domain.IngressRule{
						CIDR:     aws.ToString(r.CidrIp),
						Protocol: protocol,
						FromPort: from,
						ToPort:   to,
					})
				}
				for _, r := range perm.Ipv6Ranges {
					attrs.Ingress = append(attrs.Ingress, domain.IngressRule{
						CIDR:     aws.ToString(r.CidrIpv6),
						Protocol: protocol,
						FromPort: from,
						ToPort:   to,
					})
				}
			}

			resources = append(resources, domain.Resource{
				Kind:   domain.KindNetworkRule,
				ID:     aws.ToString(sg.GroupId),
				Region: region,
				Attrs:  domain.Attributes{Network: attrs},
			})
		}
	}

	return resources, nil
}

func (c *awsCollector) collectInstances(ctx context.Context, region string) ([]domain.Resource, error) {
	var resources []domain.Resource

	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{"running", "stopped"},
			},
		},
	}

	pager := ec2.NewDescribeInstancesPaginator(c.ec2Client, input)
	for pager.HasMorePages() {
		page, err := withThrottleRetry(ctx, func() (*ec2.DescribeInstancesOutput, error) {
			return pager.NextPage(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("describe instances: %w", err)
		}

		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				attrs := &domain.ComputeInstanceAttrs{
					InstanceType: string(instance.InstanceType),
					PublicIP:     instance.PublicIpAddress != nil,
					Tags:         map[string]string{},
				}
				if instance.MetadataOptions != nil {
					attrs.IMDSv2Required = instance.MetadataOptions.HttpTokens == types.HttpTokensStateRequired
				}
				if instance.Monitoring != nil {
					attrs.DetailedMonitoring = instance.Monitoring.State == types.MonitoringStateEnabled
				}
				for _, tag := range instance.Tags {
					attrs.Tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
				}

				resources = append(resources, domain.Resource{
					Kind:   domain.KindComputeInstance,
					ID:     aws.ToString(instance.InstanceId),
					Region: region,
					Attrs:  domain.Attributes{Instance: attrs},
				})
			}
		}
	}

	return resources, nil
}
