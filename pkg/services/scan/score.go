package scan

import (
	"math"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

// Score reduces a violation set to a 0-100 compliance score plus severity
// counts. The score is the share of rule checks passed; severity does not
// weight it. Changing that would change externally observed scores, so treat
// the formula as a compatibility surface.
func Score(totalChecks int, violations []domain.Violation) (int, domain.SeverityBreakdown) {
	breakdown := domain.SeverityBreakdown{}
	for _, v := range violations {
		switch v.Severity {
		case domain.SeverityCritical:
			breakdown.Critical++
		case domain.SeverityHigh:
			breakdown.High++
		case domain.SeverityMedium:
			breakdown.Medium++
		default:
			breakdown.Low++
		}
	}

	// No applicable checks means vacuously compliant.
	if totalChecks == 0 {
		return 100, breakdown
	}

	compliant := totalChecks - len(violations)
	score := int(math.Round(100 * float64(compliant) / float64(totalChecks)))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, breakdown
}
