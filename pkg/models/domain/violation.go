package domain

// Violation records one resource failing one rule. Created only by the
// evaluator and immutable afterwards; it belongs to exactly one scan.
type Violation struct {
	ResourceID   string
	ResourceKind ResourceKind
	RuleID       string
	Severity     Severity
	Framework    Framework
	ControlRef   string
	Description  string
	Remediation  string
}
