package domain

type ResourceKind string

const (
	KindStorageBucket     ResourceKind = "storage_bucket"
	KindIdentityPrincipal ResourceKind = "identity_principal"
	KindNetworkRule       ResourceKind = "network_rule"
	KindAuditTrail        ResourceKind = "audit_trail"
	KindManagedDatabase   ResourceKind = "managed_database"
	KindComputeInstance   ResourceKind = "compute_instance"
)

// AllResourceKinds returns every kind in collection order. The order is part
// of the violation-ordering contract: scans fetch and evaluate kinds in this
// sequence.
func AllResourceKinds() []ResourceKind {
	return []ResourceKind{
		KindStorageBucket,
		KindIdentityPrincipal,
		KindNetworkRule,
		KindAuditTrail,
		KindManagedDatabase,
		KindComputeInstance,
	}
}

// Resource is a normalized snapshot of one cloud resource. Exactly one of the
// Attrs fields is set, matching Kind. Resources live only for the duration of
// a single scan run.
type Resource struct {
	Kind   ResourceKind
	ID     string
	Region string
	Attrs  Attributes
}

type Attributes struct {
	Bucket    *StorageBucketAttrs
	Principal *IdentityPrincipalAttrs
	Network   *NetworkRuleAttrs
	Trail     *AuditTrailAttrs
	Database  *ManagedDatabaseAttrs
	Instance  *ComputeInstanceAttrs
}

type StorageBucketAttrs struct {
	EncryptionEnabled   bool
	EncryptionAlgorithm string // AES256, aws:kms; empty when disabled
	PublicAccessBlocked bool
	VersioningEnabled   bool
	LoggingEnabled      bool
}

type IdentityPrincipalAttrs struct {
	PrincipalType     string // user, role
	AttachedPolicies  []string
	InlinePolicyCount int
	ConsoleAccess     bool
	MFAEnabled        bool
	// OldestAccessKeyAgeDays is 0 when the principal has no access keys.
	OldestAccessKeyAgeDays int
}

type IngressRule struct {
	CIDR     string
	Protocol string // tcp, udp, icmp, -1 for all
	FromPort int32
	ToPort   int32
}

type NetworkRuleAttrs struct {
	GroupName string
	Ingress   []IngressRule
}

// AuditTrailAttrs covers both real trails and the synthetic account-level
// resource emitted when an account has no trail at all (Configured=false).
type AuditTrailAttrs struct {
	Configured        bool
	Logging           bool
	MultiRegion       bool
	LogFileValidation bool
}

type ManagedDatabaseAttrs struct {
	Engine              string
	StorageEncrypted    bool
	PubliclyAccessible  bool
	BackupRetentionDays int32
	DeletionProtection  bool
}

type ComputeInstanceAttrs struct {
	InstanceType       string
	PublicIP           bool
	IMDSv2Required     bool
	DetailedMonitoring bool
	Tags               map[string]string
}
