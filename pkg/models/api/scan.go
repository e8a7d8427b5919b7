package api

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type ScanRequest struct {
	AccountID string `json:"account_id"`
	Region    string `json:"region"`
}

type Violation struct {
	ResourceID   string   `json:"resource_id"`
	ResourceType string   `json:"resource_type"`
	RuleID       string   `json:"rule_id"`
	Severity     Severity `json:"severity"`
	Framework    string   `json:"compliance_framework"`
	Description  string   `json:"description"`
	Remediation  string   `json:"remediation"`
}

type SeverityBreakdown struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Scan field names and types are a compatibility surface for reporting
// collaborators; do not rename.
type Scan struct {
	ScanID            string            `json:"scan_id"`
	AccountID         string            `json:"account_id"`
	Region            string            `json:"region"`
	Timestamp         time.Time         `json:"timestamp"`
	TriggeredBy       string            `json:"triggered_by"`
	ResourcesScanned  int               `json:"resources_scanned"`
	ComplianceScore   int               `json:"compliance_score"`
	SeverityBreakdown SeverityBreakdown `json:"severity_breakdown"`
	RuleFaults        int               `json:"rule_faults"`
	Violations        []Violation       `json:"violations"`
}

type ScanSummary struct {
	ScanID            string            `json:"scan_id"`
	AccountID         string            `json:"account_id"`
	Region            string            `json:"region"`
	Timestamp         time.Time         `json:"timestamp"`
	TriggeredBy       string            `json:"triggered_by"`
	ResourcesScanned  int               `json:"resources_scanned"`
	ViolationCount    int               `json:"violation_count"`
	ComplianceScore   int               `json:"compliance_score"`
	SeverityBreakdown SeverityBreakdown `json:"severity_breakdown"`
}

type ScanHistory struct {
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Scans []ScanSummary `json:"scans"`
}

type Dashboard struct {
	ComplianceScore   int               `json:"compliance_score"`
	ScanID            string            `json:"scan_id,omitempty"`
	Timestamp         *time.Time        `json:"timestamp,omitempty"`
	SeverityBreakdown SeverityBreakdown `json:"severity_breakdown"`
	TotalViolations   int               `json:"total_violations"`
	Page              int               `json:"page"`
	Limit             int               `json:"limit"`
	Violations        []Violation       `json:"violations"`
}

type TrendPoint struct {
	Date              time.Time         `json:"date"`
	ComplianceScore   int               `json:"compliance_score"`
	ViolationCount    int               `json:"violation_count"`
	SeverityBreakdown SeverityBreakdown `json:"severity_breakdown"`
}

type Trends struct {
	AccountID string       `json:"account_id,omitempty"`
	Days      int          `json:"days"`
	Trends    []TrendPoint `json:"trends"`
}
