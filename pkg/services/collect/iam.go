package collect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

func (c *awsCollector) collectPrincipals(ctx context.Context, region string) ([]domain.Resource, error) {
	var resources []domain.Resource

	users := iam.NewListUsersPaginator(c.iamClient, &iam.ListUsersInput{})
	for users.HasMorePages() {
		page, err := withThrottleRetry(ctx, func() (*iam.ListUsersOutput, error) {
			return users.NextPage(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		for _, user := range page.Users {
			name := aws.ToString(user.UserName)
			attrs, err := c.describeUser(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("describe user %s: %w", name, err)
			}
			resources = append(resources, domain.Resource{
				Kind:   domain.KindIdentityPrincipal,
				ID:     name,
				Region: region,
				Attrs:  domain.Attributes{Principal: attrs},
			})
		}
	}

	roles := iam.NewListRolesPaginator(c.iamClient, &iam.ListRolesInput{})
	for roles.HasMorePages() {
		page, err := withThrottleRetry(ctx, func() (*iam.ListRolesOutput, error) {
			return roles.NextPage(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("list roles: %w", err)
		}
		for _, role := range page.Roles {
			// Service-linked roles are managed by the provider.
			if strings.Contains(aws.ToString(role.Path), "aws-service-role") {
				continue
			}
			name := aws.ToString(role.RoleName)
			attrs, err := c.describeRole(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("describe role %s: %w", name, err)
			}
			resources = append(resources, domain.Resource{
				Kind:   domain.KindIdentityPrincipal,
				ID:     name,
				Region: region,
				Attrs:  domain.Attributes{Principal: attrs},
			})
		}
	}

	return resources, nil
}

func (c *awsCollector) describeUser(ctx context.Context, name string) (*domain.IdentityPrincipalAttrs, error) {
	attrs := &domain.IdentityPrincipalAttrs{PrincipalType: "user"}

	attached, err := withThrottleRetry(ctx, func() (*iam.ListAttachedUserPoliciesOutput, error) {
		return c.iamClient.ListAttachedUserPolicies(ctx, &iam.ListAttachedUserPoliciesInput{
			UserName: aws.String(name),
		})
	})
	if err != nil {
		return nil, err
	}
	for _, p := range attached.AttachedPolicies {
		attrs.AttachedPolicies = append(attrs.AttachedPolicies, aws.ToString(p.PolicyName))
	}

	inline, err := withThrottleRetry(ctx, func() (*iam.ListUserPoliciesOutput, error) {
		return c.iamClient.ListUserPolicies(ctx, &iam.ListUserPoliciesInput{UserName: aws.String(name)})
	})
	if err != nil {
		return nil, err
	}
	attrs.InlinePolicyCount = len(inline.PolicyNames)

	_, err = withThrottleRetry(ctx, func() (*iam.GetLoginProfileOutput, error) {
		return c.iamClient.GetLoginProfile(ctx, &iam.GetLoginProfileInput{UserName: aws.String(name)})
	})
	switch {
	case err == nil:
		attrs.ConsoleAccess = true
	case isErrorCode(err, "NoSuchEntity"):
		// no login profile, API-only user
	default:
		return nil, err
	}

	if attrs.ConsoleAccess {
		mfa, err := withThrottleRetry(ctx, func() (*iam.ListMFADevicesOutput, error) {
			return c.iamClient.ListMFADevices(ctx, &iam.ListMFADevicesInput{UserName: aws.String(name)})
		})
		if err != nil {
			return nil, err
		}
		attrs.MFAEnabled = len(mfa.MFADevices) > 0
	}

	keys, err := withThrottleRetry(ctx, func() (*iam.ListAccessKeysOutput, error) {
		return c.iamClient.ListAccessKeys(ctx, &iam.ListAccessKeysInput{UserName: aws.String(name)})
	})
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, key := range keys.AccessKeyMetadata {
		if key.CreateDate == nil {
			continue
		}
		age := int(now.Sub(*key.CreateDate).Hours() / 24)
		if age > attrs.OldestAccessKeyAgeDays {
			attrs.OldestAccessKeyAgeDays = age
		}
	}

	return attrs, nil
}

func (c *awsCollector) describeRole(ctx context.Context, name string) (*domain.IdentityPrincipalAttrs, error) {
	attrs := &domain.IdentityPrincipalAttrs{PrincipalType: "role"}

	attached, err := withThrottleRetry(ctx, func() (*iam.ListAttachedRolePoliciesOutput, error) {
		return c.iamClient.ListAttachedRolePolicies(ctx, &iam.ListAttachedRolePoliciesInput{
			RoleName: aws.String(name),
		})
	})
	if err != nil {
		return nil, err
	}
	for _, p := range attached.AttachedPolicies {
		attrs.AttachedPolicies = append(attrs.AttachedPolicies, aws.ToString(p.PolicyName))
	}

	inline, err := withThrottleRetry(ctx, func() (*iam.ListRolePoliciesOutput, error) {
		return c.iamClient.ListRolePolicies(ctx, &iam.ListRolePoliciesInput{RoleName: aws.String(name)})
	})
	if err != nil {
		return nil, err
	}
	attrs.InlinePolicyCount = len(inline.PolicyNames)

	return attrs, nil
}
