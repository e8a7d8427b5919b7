package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/services/collect"
)

const excessivePolicyCount = 10

// Broad managed policies that put a principal straight into the critical
// bucket.
var criticalPolicies = map[string]bool{
	"AdministratorAccess": true,
	"IAMFullAccess":       true,
}

var riskyPolicies = map[string]bool{
	"AdministratorAccess": true,
	"PowerUserAccess":     true,
	"IAMFullAccess":       true,
	"SecurityAudit":       true,
}

// Reviewer produces point-in-time access reviews over the live identity
// inventory. Unlike scans, reviews leave no trace in history.
type Reviewer interface {
	Review(ctx context.Context, accountID, region string) (*domain.AccessReview, error)
}

type reviewer struct {
	collector collect.Collector
}

func NewReviewer(collector collect.Collector) (Reviewer, error) {
	if collector == nil {
		return nil, fmt.Errorf("collector is nil")
	}
	return &reviewer{collector: collector}, nil
}

func (r *reviewer) Review(ctx context.Context, accountID, region string) (*domain.AccessReview, error) {
	resources, err := r.collector.Collect(ctx, accountID, region, domain.KindIdentityPrincipal)
	if err != nil {
		return nil, fmt.Errorf("collecting identity principals: %w", err)
	}

	result := &domain.AccessReview{
		AccountID:   accountID,
		Region:      region,
		GeneratedAt: time.Now().UTC(),
		Principals:  make([]domain.PrincipalReview, 0, len(resources)),
	}

	for _, res := range resources {
		p := assessPrincipal(res)
		result.Principals = append(result.Principals, p)

		switch p.RiskLevel {
		case domain.SeverityCritical:
			result.Summary.Breakdown.Critical++
		case domain.SeverityHigh:
			result.Summary.Breakdown.High++
		case domain.SeverityMedium:
			result.Summary.Breakdown.Medium++
		default:
			result.Summary.Breakdown.Low++
		}
	}
	result.Summary.TotalPrincipals = len(result.Principals)

	zerolog.Ctx(ctx).Info().
		Str("account_id", accountID).
		Str("region", region).
		Int("principals", result.Summary.TotalPrincipals).
		Int("critical", result.Summary.Breakdown.Critical).
		Msg("access review complete")
	return result, nil
}

// assessPrincipal grades one identity from its policy surface. Admin-grade
// managed policies dominate the grade; otherwise the volume of findings
// decides between the middle grades.
func assessPrincipal(res domain.Resource) domain.PrincipalReview {
	attrs := res.Attrs.Principal

	reasons := []string{}
	critical := false
	for _, policy := range attrs.AttachedPolicies {
		if criticalPolicies[policy] {
			critical = true
		}
		if riskyPolicies[policy] || strings.Contains(policy, "FullAccess") {
			reasons = append(reasons, fmt.Sprintf("has %s policy", policy))
		}
	}

	total := len(attrs.AttachedPolicies) + attrs.InlinePolicyCount
	if total > excessivePolicyCount {
		reasons = append(reasons, fmt.Sprintf("has %d policies (excessive)", total))
	}
	if attrs.InlinePolicyCount > 0 {
		reasons = append(reasons, fmt.Sprintf("has %d inline policies", attrs.InlinePolicyCount))
	}

	level := domain.SeverityLow
	switch {
	case critical:
		level = domain.SeverityCritical
	case len(reasons) >= 3:
		level = domain.SeverityHigh
	case len(reasons) > 0:
		level = domain.SeverityMedium
	}

	return domain.PrincipalReview{
		Name:              res.ID,
		PrincipalType:     attrs.PrincipalType,
		AttachedPolicies:  attrs.AttachedPolicies,
		InlinePolicyCount: attrs.InlinePolicyCount,
		TotalPolicies:     total,
		RiskLevel:         level,
		RiskReasons:       reasons,
	}
}
