package api

import "time"

type PrincipalReview struct {
	Name              string   `json:"name"`
	Type              string   `json:"type"`
	AttachedPolicies  []string `json:"attached_policies"`
	InlinePolicyCount int      `json:"inline_policy_count"`
	TotalPolicies     int      `json:"total_policies"`
	RiskLevel         Severity `json:"risk_level"`
	RiskReasons       []string `json:"risk_reasons"`
}

type AccessReview struct {
	AccountID       string            `json:"account_id,omitempty"`
	Region          string            `json:"region"`
	GeneratedAt     time.Time         `json:"generated_at"`
	TotalPrincipals int               `json:"total_principals"`
	RiskBreakdown   SeverityBreakdown `json:"risk_breakdown"`
	Principals      []PrincipalReview `json:"principals"`
}
