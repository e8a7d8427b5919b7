package adapters

import (
	"github.com/de-tools/compliance-atlas/pkg/models/api"
	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/models/store"
)

func MapSeverityDomainToApi(s domain.Severity) api.Severity {
	switch s {
	case domain.SeverityCritical:
		return api.SeverityCritical
	case domain.SeverityHigh:
		return api.SeverityHigh
	case domain.SeverityMedium:
		return api.SeverityMedium
	default:
		return api.SeverityLow
	}
}

func MapViolationDomainToApi(v domain.Violation) api.Violation {
	return api.Violation{
		ResourceID:   v.ResourceID,
		ResourceType: string(v.ResourceKind),
		RuleID:       v.RuleID,
		Severity:     MapSeverityDomainToApi(v.Severity),
		Framework:    string(v.Framework) + " " + v.ControlRef,
		Description:  v.Description,
		Remediation:  v.Remediation,
	}
}

func MapBreakdownDomainToApi(b domain.SeverityBreakdown) api.SeverityBreakdown {
	return api.SeverityBreakdown{
		Critical: b.Critical,
		High:     b.High,
		Medium:   b.Medium,
		Low:      b.Low,
	}
}

func MapScanDomainToApi(s domain.Scan) api.Scan {
	res := api.Scan{
		ScanID:            s.ID,
		AccountID:         s.AccountID,
		Region:            s.Region,
		Timestamp:         s.Timestamp,
		TriggeredBy:       string(s.TriggeredBy),
		ResourcesScanned:  s.ResourcesScanned,
		ComplianceScore:   s.ComplianceScore,
		SeverityBreakdown: MapBreakdownDomainToApi(s.Breakdown),
		RuleFaults:        s.RuleFaults,
		Violations:        make([]api.Violation, 0, len(s.Violations)),
	}
	for _, v := range s.Violations {
		res.Violations = append(res.Violations, MapViolationDomainToApi(v))
	}
	return res
}

func MapScanSummaryDomainToApi(s domain.ScanSummary) api.ScanSummary {
	return api.ScanSummary{
		ScanID:            s.ID,
		AccountID:         s.AccountID,
		Region:            s.Region,
		Timestamp:         s.Timestamp,
		TriggeredBy:       string(s.TriggeredBy),
		ResourcesScanned:  s.ResourcesScanned,
		ViolationCount:    s.ViolationCount,
		ComplianceScore:   s.ComplianceScore,
		SeverityBreakdown: MapBreakdownDomainToApi(s.Breakdown),
	}
}

func MapTrendPointDomainToApi(p domain.TrendPoint) api.TrendPoint {
	return api.TrendPoint{
		Date:              p.Timestamp,
		ComplianceScore:   p.ComplianceScore,
		ViolationCount:    p.ViolationCount,
		SeverityBreakdown: MapBreakdownDomainToApi(p.Breakdown),
	}
}

func MapScanDomainToStore(s domain.Scan) (store.ScanRecord, []store.ViolationRecord) {
	record := store.ScanRecord{
		ID:               s.ID,
		AccountID:        s.AccountID,
		Region:           s.Region,
		Timestamp:        s.Timestamp,
		TriggeredBy:      string(s.TriggeredBy),
		ResourcesScanned: s.ResourcesScanned,
		ChecksEvaluated:  s.ChecksEvaluated,
		RuleFaults:       s.RuleFaults,
		ComplianceScore:  s.ComplianceScore,
		CriticalCount:    s.Breakdown.Critical,
		HighCount:        s.Breakdown.High,
		MediumCount:      s.Breakdown.Medium,
		LowCount:         s.Breakdown.Low,
	}

	violations := make([]store.ViolationRecord, 0, len(s.Violations))
	for i, v := range s.Violations {
		violations = append(violations, store.ViolationRecord{
			ScanID:       s.ID,
			Position:     i,
			ResourceID:   v.ResourceID,
			ResourceKind: string(v.ResourceKind),
			RuleID:       v.RuleID,
			Severity:     v.Severity.String(),
			Framework:    string(v.Framework),
			ControlRef:   v.ControlRef,
			Description:  v.Description,
			Remediation:  v.Remediation,
		})
	}
	return record, violations
}

func MapSeverityStoreToDomain(s string) domain.Severity {
	switch s {
	case "CRITICAL":
		return domain.SeverityCritical
	case "HIGH":
		return domain.SeverityHigh
	case "MEDIUM":
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func MapScanRecordStoreToDomain(r store.ScanRecord, violations []store.ViolationRecord) domain.Scan {
	s := domain.Scan{
		ID:               r.ID,
		AccountID:        r.AccountID,
		Region:           r.Region,
		Timestamp:        r.Timestamp,
		TriggeredBy:      domain.TriggeredBy(r.TriggeredBy),
		ResourcesScanned: r.ResourcesScanned,
		ChecksEvaluated:  r.ChecksEvaluated,
		RuleFaults:       r.RuleFaults,
		ComplianceScore:  r.ComplianceScore,
		Breakdown:        mapBreakdownStoreToDomain(r),
		Violations:       make([]domain.Violation, 0, len(violations)),
	}
	for _, v := range violations {
		s.Violations = append(s.Violations, domain.Violation{
			ResourceID:   v.ResourceID,
			ResourceKind: domain.ResourceKind(v.ResourceKind),
			RuleID:       v.RuleID,
			Severity:     MapSeverityStoreToDomain(v.Severity),
			Framework:    domain.Framework(v.Framework),
			ControlRef:   v.ControlRef,
			Description:  v.Description,
			Remediation:  v.Remediation,
		})
	}
	return s
}

func MapScanRecordStoreToSummary(r store.ScanRecord) domain.ScanSummary {
	b := mapBreakdownStoreToDomain(r)
	return domain.ScanSummary{
		ID:               r.ID,
		AccountID:        r.AccountID,
		Region:           r.Region,
		Timestamp:        r.Timestamp,
		TriggeredBy:      domain.TriggeredBy(r.TriggeredBy),
		ResourcesScanned: r.ResourcesScanned,
		ViolationCount:   b.Total(),
		ComplianceScore:  r.ComplianceScore,
		Breakdown:        b,
	}
}

func MapScanRecordStoreToTrendPoint(r store.ScanRecord) domain.TrendPoint {
	b := mapBreakdownStoreToDomain(r)
	return domain.TrendPoint{
		Timestamp:       r.Timestamp,
		ComplianceScore: r.ComplianceScore,
		ViolationCount:  b.Total(),
		Breakdown:       b,
	}
}

func mapBreakdownStoreToDomain(r store.ScanRecord) domain.SeverityBreakdown {
	return domain.SeverityBreakdown{
		Critical: r.CriticalCount,
		High:     r.HighCount,
		Medium:   r.MediumCount,
		Low:      r.LowCount,
	}
}
