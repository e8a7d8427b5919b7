package terminal

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

// Reporter outputs scan results to the console in a formatted text form
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a new console reporter
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(result *domain.Scan) error {
	tmpl := `
Compliance Scan {{.ID}}
Account: {{.AccountID}} ({{.Region}})
Completed: {{.Timestamp.Format "2006-01-02 15:04:05"}} UTC

Score: {{.ComplianceScore}}/100
Resources Scanned: {{.ResourcesScanned}}
Checks Evaluated: {{.ChecksEvaluated}}{{if .RuleFaults}}
Rule Faults: {{.RuleFaults}}{{end}}

Violations ({{len .Violations}} total):
  Critical: {{.Breakdown.Critical}}
  High:     {{.Breakdown.High}}
  Medium:   {{.Breakdown.Medium}}
  Low:      {{.Breakdown.Low}}
{{range .Violations}}
- [{{.Severity}}] {{.RuleID}} {{.ResourceID}}
  {{.Description}}
  Fix: {{.Remediation}}
{{end}}`
	t, err := template.New("scan").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, result)
}
