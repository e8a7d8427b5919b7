package adapters

import (
	"github.com/de-tools/compliance-atlas/pkg/models/api"
	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

func MapPrincipalReviewDomainToApi(p domain.PrincipalReview) api.PrincipalReview {
	return api.PrincipalReview{
		Name:              p.Name,
		Type:              p.PrincipalType,
		AttachedPolicies:  p.AttachedPolicies,
		InlinePolicyCount: p.InlinePolicyCount,
		TotalPolicies:     p.TotalPolicies,
		RiskLevel:         MapSeverityDomainToApi(p.RiskLevel),
		RiskReasons:       p.RiskReasons,
	}
}

func MapAccessReviewDomainToApi(r domain.AccessReview) api.AccessReview {
	res := api.AccessReview{
		AccountID:       r.AccountID,
		Region:          r.Region,
		GeneratedAt:     r.GeneratedAt,
		TotalPrincipals: r.Summary.TotalPrincipals,
		RiskBreakdown:   MapBreakdownDomainToApi(r.Summary.Breakdown),
		Principals:      make([]api.PrincipalReview, 0, len(r.Principals)),
	}
	for _, p := range r.Principals {
		res.Principals = append(res.Principals, MapPrincipalReviewDomainToApi(p))
	}
	return res
}
