package scan

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/services/catalogue"
)

// RuleFault records one (resource, rule) pair whose predicate panicked. The
// pair is excluded from both the violation list and the compliant-check
// count so a broken rule cannot move the score either way.
type RuleFault struct {
	ResourceID string
	RuleID     string
	Err        error
}

type Evaluation struct {
	Violations []domain.Violation
	// Checks is the number of (resource, rule) pairs that evaluated cleanly;
	// the score denominator.
	Checks int
	Faults []RuleFault
}

type resourceResult struct {
	violations []domain.Violation
	checks     int
	faults     []RuleFault
}

// Evaluate applies every applicable catalogue rule to every resource.
// Resources are evaluated concurrently but results are merged back in
// resource order, then catalogue order, so the violation sequence is
// deterministic for identical input.
func Evaluate(ctx context.Context, resources []domain.Resource, cat *catalogue.Catalogue) Evaluation {
	results := make([]resourceResult, len(resources))

	g, ctx := errgroup.WithContext(ctx)
	for i, res := range resources {
		g.Go(func() error {
			results[i] = evaluateResource(res, cat.RulesFor(res.Kind))
			return nil
		})
	}
	_ = g.Wait()

	logger := zerolog.Ctx(ctx)
	out := Evaluation{Violations: []domain.Violation{}}
	for _, r := range results {
		out.Violations = append(out.Violations, r.violations...)
		out.Checks += r.checks
		out.Faults = append(out.Faults, r.faults...)
	}
	for _, f := range out.Faults {
		logger.Warn().
			Str("resource_id", f.ResourceID).
			Str("rule_id", f.RuleID).
			Err(f.Err).
			Msg("rule evaluation fault, check skipped")
	}
	return out
}

func evaluateResource(res domain.Resource, rules []domain.Rule) resourceResult {
	var result resourceResult
	for _, rule := range rules {
		violation, compliant, err := applyRule(rule, res)
		if err != nil {
			result.faults = append(result.faults, RuleFault{
				ResourceID: res.ID,
				RuleID:     rule.ID,
				Err:        err,
			})
			continue
		}

		result.checks++
		if compliant {
			continue
		}
		result.violations = append(result.violations, violation)
	}
	return result
}

// applyRule isolates panics in rule code. The predicate and the
// description/remediation templates all run under the same recovery, so a
// broken rule fails its own check, not the scan.
func applyRule(rule domain.Rule, res domain.Resource) (v domain.Violation, compliant bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = domain.Violation{}
			err = fmt.Errorf("rule panic: %v", r)
		}
	}()

	if rule.Predicate(res) {
		return domain.Violation{}, true, nil
	}

	return domain.Violation{
		ResourceID:   res.ID,
		ResourceKind: res.Kind,
		RuleID:       rule.ID,
		Severity:     rule.Severity,
		Framework:    rule.Framework,
		ControlRef:   rule.ControlRef,
		Description:  rule.Description(res),
		Remediation:  rule.Remediation(res),
	}, false, nil
}
