package domain

import "time"

type TriggeredBy string

const (
	TriggerManual    TriggeredBy = "manual"
	TriggerScheduled TriggeredBy = "scheduled"
)

type SeverityBreakdown struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

func (b SeverityBreakdown) Total() int {
	return b.Critical + b.High + b.Medium + b.Low
}

// Scan is one complete evaluation run over an account/region. Immutable once
// committed; history is append-only.
type Scan struct {
	ID               string
	AccountID        string
	Region           string
	Timestamp        time.Time
	TriggeredBy      TriggeredBy
	ResourcesScanned int
	ChecksEvaluated  int
	RuleFaults       int
	ComplianceScore  int
	Breakdown        SeverityBreakdown
	Violations       []Violation
}

// ScanSummary is the history-listing projection of a scan, without the
// violation payload.
type ScanSummary struct {
	ID               string
	AccountID        string
	Region           string
	Timestamp        time.Time
	TriggeredBy      TriggeredBy
	ResourcesScanned int
	ViolationCount   int
	ComplianceScore  int
	Breakdown        SeverityBreakdown
}

type TrendPoint struct {
	Timestamp       time.Time
	ComplianceScore int
	ViolationCount  int
	Breakdown       SeverityBreakdown
}
