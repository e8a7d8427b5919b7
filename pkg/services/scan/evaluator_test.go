package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/services/catalogue"
)

func bucketResource(id string, encrypted bool) domain.Resource {
	return domain.Resource{
		Kind: domain.KindStorageBucket,
		ID:   id,
		Attrs: domain.Attributes{
			Bucket: &domain.StorageBucketAttrs{EncryptionEnabled: encrypted},
		},
	}
}

func testCatalogue(t *testing.T, rules []domain.Rule) *catalogue.Catalogue {
	t.Helper()
	cat, err := catalogue.New("test", rules)
	require.NoError(t, err)
	return cat
}

func staticRule(id string, kind domain.ResourceKind, predicate func(domain.Resource) bool) domain.Rule {
	return domain.Rule{
		ID:          id,
		Kind:        kind,
		Framework:   domain.FrameworkNIST80053,
		ControlRef:  "SC-28",
		Severity:    domain.SeverityHigh,
		Predicate:   predicate,
		Description: func(r domain.Resource) string { return "resource " + r.ID + " failed " + id },
		Remediation: func(r domain.Resource) string { return "fix " + r.ID },
	}
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("counts checks and collects violations", func(t *testing.T) {
		cat := testCatalogue(t, []domain.Rule{
			staticRule("R-001", domain.KindStorageBucket, func(r domain.Resource) bool {
				return r.Attrs.Bucket.EncryptionEnabled
			}),
			staticRule("R-002", domain.KindStorageBucket, func(domain.Resource) bool {
				return true
			}),
		})

		resources := []domain.Resource{
			bucketResource("alpha", false),
			bucketResource("beta", true),
		}

		eval := Evaluate(ctx, resources, cat)

		assert.Equal(t, 4, eval.Checks)
		assert.Empty(t, eval.Faults)
		require.Len(t, eval.Violations, 1)
		assert.Equal(t, "alpha", eval.Violations[0].ResourceID)
		assert.Equal(t, "R-001", eval.Violations[0].RuleID)
		assert.Equal(t, "resource alpha failed R-001", eval.Violations[0].Description)
	})

	t.Run("no resources", func(t *testing.T) {
		cat := testCatalogue(t, nil)
		eval := Evaluate(ctx, nil, cat)
		assert.Zero(t, eval.Checks)
		assert.Empty(t, eval.Violations)
	})

	t.Run("violations keep resource then rule order", func(t *testing.T) {
		fails := func(domain.Resource) bool { return false }
		cat := testCatalogue(t, []domain.Rule{
			staticRule("R-001", domain.KindStorageBucket, fails),
			staticRule("R-002", domain.KindStorageBucket, fails),
		})

		resources := []domain.Resource{
			bucketResource("alpha", false),
			bucketResource("beta", false),
			bucketResource("gamma", false),
		}

		want := []string{
			"alpha/R-001", "alpha/R-002",
			"beta/R-001", "beta/R-002",
			"gamma/R-001", "gamma/R-002",
		}

		// Resources evaluate concurrently; the merged sequence must not
		// depend on scheduling.
		for i := 0; i < 10; i++ {
			eval := Evaluate(ctx, resources, cat)
			got := make([]string, 0, len(eval.Violations))
			for _, v := range eval.Violations {
				got = append(got, v.ResourceID+"/"+v.RuleID)
			}
			require.Equal(t, want, got)
		}
	})

	t.Run("panicking predicate becomes a fault", func(t *testing.T) {
		cat := testCatalogue(t, []domain.Rule{
			staticRule("R-BROKEN", domain.KindStorageBucket, func(r domain.Resource) bool {
				if r.ID == "alpha" {
					panic("nil attribute access")
				}
				return false
			}),
			staticRule("R-OK", domain.KindStorageBucket, func(domain.Resource) bool {
				return true
			}),
		})

		eval := Evaluate(ctx, []domain.Resource{
			bucketResource("alpha", false),
			bucketResource("beta", false),
		}, cat)

		// alpha's broken check is excluded from the denominator, the other
		// three checks still count.
		assert.Equal(t, 3, eval.Checks)
		require.Len(t, eval.Faults, 1)
		assert.Equal(t, "alpha", eval.Faults[0].ResourceID)
		assert.Equal(t, "R-BROKEN", eval.Faults[0].RuleID)
		assert.ErrorContains(t, eval.Faults[0].Err, "rule panic")

		require.Len(t, eval.Violations, 1)
		assert.Equal(t, "beta", eval.Violations[0].ResourceID)
	})

	t.Run("panicking description template becomes a fault", func(t *testing.T) {
		// The predicate passes judgment but the template derefs an attribute
		// pointer that is not set for this kind.
		broken := staticRule("R-BADTMPL", domain.KindStorageBucket, func(domain.Resource) bool {
			return false
		})
		broken.Description = func(r domain.Resource) string {
			return "engine " + r.Attrs.Database.Engine
		}

		cat := testCatalogue(t, []domain.Rule{
			broken,
			staticRule("R-OK", domain.KindStorageBucket, func(domain.Resource) bool {
				return false
			}),
		})

		eval := Evaluate(ctx, []domain.Resource{bucketResource("alpha", false)}, cat)

		assert.Equal(t, 1, eval.Checks)
		require.Len(t, eval.Faults, 1)
		assert.Equal(t, "R-BADTMPL", eval.Faults[0].RuleID)
		assert.ErrorContains(t, eval.Faults[0].Err, "rule panic")

		// The half-rendered violation is dropped along with its check.
		require.Len(t, eval.Violations, 1)
		assert.Equal(t, "R-OK", eval.Violations[0].RuleID)
	})
}
