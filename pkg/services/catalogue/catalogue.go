package catalogue

import (
	"fmt"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

// Version identifies the rule set baked into this build. Bump on any rule
// addition, removal, or severity change.
const Version = "2025.08"

// Catalogue is the static rule table, keyed by resource kind. Loaded once at
// startup and read-only afterwards, so lookups are safe from any goroutine.
type Catalogue struct {
	version string
	byKind  map[domain.ResourceKind][]domain.Rule
	total   int
}

// Load builds the built-in catalogue. It fails when two rules share an id or
// a rule declares an unknown resource kind; the caller is expected to abort
// startup on error.
func Load() (*Catalogue, error) {
	return New(Version, builtinRules())
}

func New(version string, rules []domain.Rule) (*Catalogue, error) {
	known := make(map[domain.ResourceKind]bool)
	for _, k := range domain.AllResourceKinds() {
		known[k] = true
	}

	byKind := make(map[domain.ResourceKind][]domain.Rule)
	seen := make(map[string]bool)
	for _, r := range rules {
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true

		if !known[r.Kind] {
			return nil, fmt.Errorf("rule %q declares unknown resource kind %q", r.ID, r.Kind)
		}
		if r.Predicate == nil {
			return nil, fmt.Errorf("rule %q has no predicate", r.ID)
		}
		byKind[r.Kind] = append(byKind[r.Kind], r)
	}

	return &Catalogue{
		version: version,
		byKind:  byKind,
		total:   len(rules),
	}, nil
}

func (c *Catalogue) Version() string {
	return c.version
}

func (c *Catalogue) TotalRules() int {
	return c.total
}

// RulesFor returns the rules for a kind in declaration order. A kind with no
// rules yields an empty slice, never an error.
func (c *Catalogue) RulesFor(kind domain.ResourceKind) []domain.Rule {
	return c.byKind[kind]
}
