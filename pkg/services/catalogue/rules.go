package catalogue

import (
	"fmt"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

// Managed policies that grant broad access and violate least privilege.
var riskyManagedPolicies = map[string]bool{
	"AdministratorAccess": true,
	"PowerUserAccess":     true,
	"IAMFullAccess":       true,
}

const maxAccessKeyAgeDays = 90

var requiredInstanceTags = []string{"Owner", "Environment"}

func openToWorld(cidr string) bool {
	return cidr == "0.0.0.0/0" || cidr == "::/0"
}

func coversPort(rule domain.IngressRule, port int32) bool {
	// Protocol -1 means all traffic regardless of port range.
	if rule.Protocol == "-1" {
		return true
	}
	return rule.FromPort <= port && port <= rule.ToPort
}

func builtinRules() []domain.Rule {
	rules := []domain.Rule{}
	rules = append(rules, storageBucketRules()...)
	rules = append(rules, identityPrincipalRules()...)
	rules = append(rules, networkRuleRules()...)
	rules = append(rules, auditTrailRules()...)
	rules = append(rules, managedDatabaseRules()...)
	rules = append(rules, computeInstanceRules()...)
	return rules
}

func storageBucketRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:          "S3-001",
			Kind:        domain.KindStorageBucket,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "SC-28",
			ControlName: nistControls["SC-28"],
			Severity:    domain.SeverityCritical,
			Predicate: func(r domain.Resource) bool {
				return r.Attrs.Bucket.EncryptionEnabled
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf("Storage bucket %q has no default encryption configuration", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Enable default bucket encryption:\n\naws s3api put-bucket-encryption --bucket %s "+
						`--server-side-encryption-configuration '{"Rules": [{"ApplyServerSideEncryptionByDefault": {"SSEAlgorithm": "AES256"}}]}'`,
					r.ID)
			},
		},
		{
			ID:          "S3-002",
			Kind:        domain.KindStorageBucket,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "SC-7",
			ControlName: nistControls["SC-7"],
			Severity:    domain.SeverityHigh,
			Predicate: func(r domain.Resource) bool {
				return r.Attrs.Bucket.PublicAccessBlocked
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf("Storage bucket %q does not block public access", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Block all public access:\n\naws s3api put-public-access-block --bucket %s "+
						"--public-access-block-configuration BlockPublicAcls=true,IgnorePublicAcls=true,BlockPublicPolicy=true,RestrictPublicBuckets=true",
					r.ID)
			},
		},
		{
			ID:          "S3-003",
			Kind:        domain.KindStorageBucket,
			Framework:   domain.FrameworkISO27001,
			ControlRef:  "A.12.4.1",
			ControlName: isoControls["A.12.4.1"],
			Severity:    domain.SeverityMedium,
			Predicate: func(r domain.Resource) bool {
				return r.Attrs.Bucket.LoggingEnabled
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf("Storage bucket %q has server access logging disabled", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Enable server access logging for bucket %s via put-bucket-logging, targeting a dedicated log bucket.",
					r.ID)
			},
		},
		{
			ID:          "S3-004",
			Kind:        domain.KindStorageBucket,
			Framework:   domain.FrameworkISO27001,
			ControlRef:  "A.8.9",
			ControlName: isoControls["A.8.9"],
			Severity:    domain.SeverityLow,
			Predicate: func(r domain.Resource) bool {
				return r.Attrs.Bucket.VersioningEnabled
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf("Storage bucket %q has versioning disabled", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Enable versioning:\n\naws s3api put-bucket-versioning --bucket %s --versioning-configuration Status=Enabled",
					r.ID)
			},
		},
	}
}

func identityPrincipalRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:          "IAM-001",
			Kind:        domain.KindIdentityPrincipal,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "AC-6",
			ControlName: nistControls["AC-6"],
			Severity:    domain.SeverityCritical,
			Predicate: func(r domain.Resource) bool {
				for _, p := range r.Attrs.Principal.AttachedPolicies {
					if riskyManagedPolicies[p] {
						return false
					}
				}
				return true
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Identity %s %q has a broad managed policy attached, violating least privilege",
					r.Attrs.Principal.PrincipalType, r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Apply least privilege to %q:\n\n1. Identify the minimum permissions actually used\n"+
						"2. Create a scoped customer-managed policy\n3. Detach the broad managed policy\n4. Attach the scoped policy",
					r.ID)
			},
		},
		{
			ID:          "IAM-002",
			Kind:        domain.KindIdentityPrincipal,
			Framework:   domain.FrameworkISO27001,
			ControlRef:  "A.9.2.3",
			ControlName: isoControls["A.9.2.3"],
			Severity:    domain.SeverityHigh,
			Predicate: func(r domain.Resource) bool {
				p := r.Attrs.Principal
				if p.PrincipalType != "user" || !p.ConsoleAccess {
					return true
				}
				return p.MFAEnabled
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf("Identity user %q has console access without MFA", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Require MFA for %q: assign a virtual MFA device and enforce aws:MultiFactorAuthPresent in the account policy.",
					r.ID)
			},
		},
		{
			ID:          "IAM-003",
			Kind:        domain.KindIdentityPrincipal,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "AC-2",
			ControlName: nistControls["AC-2"],
			Severity:    domain.SeverityMedium,
			Predicate: func(r domain.Resource) bool {
				return r.Attrs.Principal.OldestAccessKeyAgeDays <= maxAccessKeyAgeDays
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Identity %q has an access key older than %d days (%d days)",
					r.ID, maxAccessKeyAgeDays, r.Attrs.Principal.OldestAccessKeyAgeDays)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Rotate access keys for %q:\n\naws iam create-access-key --user-name %s\n"+
						"then update consumers and delete the old key with delete-access-key.",
					r.ID, r.ID)
			},
		},
		{
			ID:          "IAM-004",
			Kind:        domain.KindIdentityPrincipal,
			Framework:   domain.FrameworkISO27001,
			ControlRef:  "A.9.2.3",
			ControlName: isoControls["A.9.2.3"],
			Severity:    domain.SeverityLow,
			Predicate: func(r domain.Resource) bool {
				return r.Attrs.Principal.InlinePolicyCount == 0
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Identity %s %q carries %d inline policies that bypass central policy review",
					r.Attrs.Principal.PrincipalType, r.ID, r.Attrs.Principal.InlinePolicyCount)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Convert inline policies on %q into managed policies so they can be reviewed and reused.",
					r.ID)
			},
		},
	}
}

func networkRuleRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:          "NET-001",
			Kind:        domain.KindNetworkRule,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "SC-7",
			ControlName: nistControls["SC-7"],
			Severity:    domain.SeverityCritical,
			Predicate: func(r domain.Resource) bool {
				for _, in := range r.Attrs.Network.Ingress {
					if !openToWorld(in.CIDR) {
						continue
					}
					if coversPort(in, 22) || coversPort(in, 3389) {
						return false
					}
				}
				return true
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Security group %q (%s) exposes an administrative port (SSH/RDP) to the internet",
					r.Attrs.Network.GroupName, r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Restrict admin access on %s:\n\naws ec2 revoke-security-group-ingress --group-id %s "+
						"--protocol tcp --port 22 --cidr 0.0.0.0/0\n\nAllow only bastion or VPN CIDR ranges.",
					r.ID, r.ID)
			},
		},
		{
			ID:          "NET-002",
			Kind:        domain.KindNetworkRule,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "SC-7",
			ControlName: nistControls["SC-7"],
			Severity:    domain.SeverityHigh,
			Predicate: func(r domain.Resource) bool {
				for _, in := range r.Attrs.Network.Ingress {
					if openToWorld(in.CIDR) {
						return false
					}
				}
				return true
			},
			Description: func(r domain.Resource) string {
				port := "all ports"
				for _, in := range r.Attrs.Network.Ingress {
					if openToWorld(in.CIDR) && in.Protocol != "-1" {
						port = fmt.Sprintf("port %d-%d (%s)", in.FromPort, in.ToPort, in.Protocol)
						break
					}
				}
				return fmt.Sprintf(
					"Security group %q (%s) allows unrestricted inbound traffic from 0.0.0.0/0 on %s",
					r.Attrs.Network.GroupName, r.ID, port)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Replace the 0.0.0.0/0 ingress rule on %s with the specific CIDR blocks that need access.",
					r.ID)
			},
		},
		{
			ID:          "NET-003",
			Kind:        domain.KindNetworkRule,
			Framework:   domain.FrameworkISO27001,
			ControlRef:  "A.13.1.3",
			ControlName: isoControls["A.13.1.3"],
			Severity:    domain.SeverityMedium,
			Predicate: func(r domain.Resource) bool {
				for _, in := range r.Attrs.Network.Ingress {
					if in.Protocol == "-1" {
						return false
					}
					if in.ToPort-in.FromPort >= 1000 {
						return false
					}
				}
				return true
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Security group %q (%s) opens a wide port range, undermining network segregation",
					r.Attrs.Network.GroupName, r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Split the wide port range on %s into the individual service ports that are actually required.",
					r.ID)
			},
		},
	}
}

func auditTrailRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:          "TRAIL-001",
			Kind:        domain.KindAuditTrail,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "AU-2",
			ControlName: nistControls["AU-2"],
			Severity:    domain.SeverityCritical,
			Predicate: func(r domain.Resource) bool {
				return r.Attrs.Trail.Configured
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf(
					"No audit trail is configured for %s; API activity is not being recorded", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return "Create a trail covering all regions:\n\naws cloudtrail create-trail --name audit-trail " +
					"--s3-bucket-name <log-bucket> --is-multi-region-trail"
			},
		},
		{
			ID:          "TRAIL-002",
			Kind:        domain.KindAuditTrail,
			Framework:   domain.FrameworkISO27001,
			ControlRef:  "A.12.4.1",
			ControlName: isoControls["A.12.4.1"],
			Severity:    domain.SeverityHigh,
			Predicate: func(r domain.Resource) bool {
				t := r.Attrs.Trail
				// Absence is TRAIL-001's finding; do not double count.
				return !t.Configured || t.Logging
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf("Audit trail %q exists but is not actively logging", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf("Start logging:\n\naws cloudtrail start-logging --name %s", r.ID)
			},
		},
		{
			ID:          "TRAIL-003",
			Kind:        domain.KindAuditTrail,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "AU-2",
			ControlName: nistControls["AU-2"],
			Severity:    domain.SeverityMedium,
			Predicate: func(r domain.Resource) bool {
				t := r.Attrs.Trail
				return !t.Configured || t.MultiRegion
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf("Audit trail %q only records a single region", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Extend the trail to all regions:\n\naws cloudtrail update-trail --name %s --is-multi-region-trail",
					r.ID)
			},
		},
		{
			ID:          "TRAIL-004",
			Kind:        domain.KindAuditTrail,
			Framework:   domain.FrameworkISO27001,
			ControlRef:  "A.12.4.1",
			ControlName: isoControls["A.12.4.1"],
			Severity:    domain.SeverityLow,
			Predicate: func(r domain.Resource) bool {
				t := r.Attrs.Trail
				return !t.Configured || t.LogFileValidation
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf("Audit trail %q has log file integrity validation disabled", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Enable validation:\n\naws cloudtrail update-trail --name %s --enable-log-file-validation",
					r.ID)
			},
		},
	}
}

func managedDatabaseRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:          "RDS-001",
			Kind:        domain.KindManagedDatabase,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "SC-28",
			ControlName: nistControls["SC-28"],
			Severity:    domain.SeverityCritical,
			Predicate: func(r domain.Resource) bool {
				return r.Attrs.Database.StorageEncrypted
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Database instance %q (%s) does not have encryption at rest enabled",
					r.ID, r.Attrs.Database.Engine)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Encryption cannot be enabled in place for %q:\n\n1. Snapshot the instance\n"+
						"2. Copy the snapshot with encryption enabled\n3. Restore from the encrypted copy\n"+
						"4. Repoint applications",
					r.ID)
			},
		},
		{
			ID:          "RDS-002",
			Kind:        domain.KindManagedDatabase,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "SC-7",
			ControlName: nistControls["SC-7"],
			Severity:    domain.SeverityCritical,
			Predicate: func(r domain.Resource) bool {
				return !r.Attrs.Database.PubliclyAccessible
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf("Database instance %q is publicly accessible from the internet", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Disable public access:\n\naws rds modify-db-instance --db-instance-identifier %s --no-publicly-accessible",
					r.ID)
			},
		},
		{
			ID:          "RDS-003",
			Kind:        domain.KindManagedDatabase,
			Framework:   domain.FrameworkISO27001,
			ControlRef:  "A.12.3.1",
			ControlName: isoControls["A.12.3.1"],
			Severity:    domain.SeverityMedium,
			Predicate: func(r domain.Resource) bool {
				return r.Attrs.Database.BackupRetentionDays >= 7
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Database instance %q retains automated backups for only %d days",
					r.ID, r.Attrs.Database.BackupRetentionDays)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Raise retention:\n\naws rds modify-db-instance --db-instance-identifier %s --backup-retention-period 7",
					r.ID)
			},
		},
		{
			ID:          "RDS-004",
			Kind:        domain.KindManagedDatabase,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "CM-2",
			ControlName: nistControls["CM-2"],
			Severity:    domain.SeverityLow,
			Predicate: func(r domain.Resource) bool {
				return r.Attrs.Database.DeletionProtection
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf("Database instance %q has deletion protection disabled", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Enable protection:\n\naws rds modify-db-instance --db-instance-identifier %s --deletion-protection",
					r.ID)
			},
		},
	}
}

func computeInstanceRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:          "EC2-001",
			Kind:        domain.KindComputeInstance,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "SC-7",
			ControlName: nistControls["SC-7"],
			Severity:    domain.SeverityHigh,
			Predicate: func(r domain.Resource) bool {
				return !r.Attrs.Instance.PublicIP
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Compute instance %q (%s) has a public IP address",
					r.ID, r.Attrs.Instance.InstanceType)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Move %q behind a load balancer or NAT gateway and release its public address.", r.ID)
			},
		},
		{
			ID:          "EC2-002",
			Kind:        domain.KindComputeInstance,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "AC-6",
			ControlName: nistControls["AC-6"],
			Severity:    domain.SeverityHigh,
			Predicate: func(r domain.Resource) bool {
				return r.Attrs.Instance.IMDSv2Required
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Compute instance %q does not enforce IMDSv2, allowing credential theft via SSRF", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Require IMDSv2:\n\naws ec2 modify-instance-metadata-options --instance-id %s --http-tokens required",
					r.ID)
			},
		},
		{
			ID:          "EC2-003",
			Kind:        domain.KindComputeInstance,
			Framework:   domain.FrameworkNIST80053,
			ControlRef:  "CM-2",
			ControlName: nistControls["CM-2"],
			Severity:    domain.SeverityLow,
			Predicate: func(r domain.Resource) bool {
				for _, tag := range requiredInstanceTags {
					if r.Attrs.Instance.Tags[tag] == "" {
						return false
					}
				}
				return true
			},
			Description: func(r domain.Resource) string {
				missing := ""
				for _, tag := range requiredInstanceTags {
					if r.Attrs.Instance.Tags[tag] == "" {
						if missing != "" {
							missing += ", "
						}
						missing += tag
					}
				}
				return fmt.Sprintf("Compute instance %q is missing required tags: %s", r.ID, missing)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Tag the instance:\n\naws ec2 create-tags --resources %s --tags Key=Owner,Value=<team> Key=Environment,Value=<env>",
					r.ID)
			},
		},
		{
			ID:          "EC2-004",
			Kind:        domain.KindComputeInstance,
			Framework:   domain.FrameworkISO27001,
			ControlRef:  "A.12.4.1",
			ControlName: isoControls["A.12.4.1"],
			Severity:    domain.SeverityLow,
			Predicate: func(r domain.Resource) bool {
				return r.Attrs.Instance.DetailedMonitoring
			},
			Description: func(r domain.Resource) string {
				return fmt.Sprintf("Compute instance %q has detailed monitoring disabled", r.ID)
			},
			Remediation: func(r domain.Resource) string {
				return fmt.Sprintf(
					"Enable monitoring:\n\naws ec2 monitor-instances --instance-ids %s", r.ID)
			},
		},
	}
}
