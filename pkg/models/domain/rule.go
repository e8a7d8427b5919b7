package domain

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

type Framework string

const (
	FrameworkNIST80053 Framework = "NIST SP 800-53"
	FrameworkISO27001  Framework = "ISO 27001"
)

// Rule is one compliance check against a single resource kind. Predicate must
// be a pure function of the resource's attributes (true = compliant);
// Description and Remediation render the rule's templates with the offending
// resource's fields. Rules are loaded once at startup and never mutated.
type Rule struct {
	ID          string
	Kind        ResourceKind
	Framework   Framework
	ControlRef  string
	ControlName string
	Severity    Severity
	Predicate   func(Resource) bool
	Description func(Resource) string
	Remediation func(Resource) string
}

// ControlID is the fully qualified framework reference, e.g.
// "NIST SP 800-53 SC-28". Persisted verbatim on violations.
func (r Rule) ControlID() string {
	return string(r.Framework) + " " + r.ControlRef
}
