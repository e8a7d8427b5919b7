package store

import "time"

type ScanRecord struct {
	ID               string
	AccountID        string
	Region           string
	Timestamp        time.Time
	TriggeredBy      string
	ResourcesScanned int
	ChecksEvaluated  int
	RuleFaults       int
	ComplianceScore  int
	CriticalCount    int
	HighCount        int
	MediumCount      int
	LowCount         int
}

// ViolationRecord keeps the evaluator's emission order via Position so reads
// reproduce the exact violation sequence of the scan.
type ViolationRecord struct {
	ScanID       string
	Position     int
	ResourceID   string
	ResourceKind string
	RuleID       string
	Severity     string
	Framework    string
	ControlRef   string
	Description  string
	Remediation  string
}

type ScanFilter struct {
	AccountID string
	Page      int
	PageSize  int
}
