package domain

import "time"

// PrincipalReview is one identity's access assessment: its policy surface and
// the risk grade derived from it.
type PrincipalReview struct {
	Name              string
	PrincipalType     string
	AttachedPolicies  []string
	InlinePolicyCount int
	TotalPolicies     int
	RiskLevel         Severity
	RiskReasons       []string
}

type ReviewSummary struct {
	TotalPrincipals int
	Breakdown       SeverityBreakdown
}

// AccessReview is a point-in-time assessment of every identity principal in an
// account. Reviews read the live inventory and are never persisted; history
// stays a pure scan log.
type AccessReview struct {
	AccountID   string
	Region      string
	GeneratedAt time.Time
	Principals  []PrincipalReview
	Summary     ReviewSummary
}
