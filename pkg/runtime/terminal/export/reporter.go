package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

type TableConfig struct {
	SeverityWidth    int
	RuleWidth        int
	ResourceWidth    int
	DescriptionWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		SeverityWidth:    10,
		RuleWidth:        12,
		ResourceWidth:    40,
		DescriptionWidth: 64,
	}
}

// Reporter renders a scan as a bordered violations table, suitable for piping
// into a file or a ticket.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) Handle(result *domain.Scan) error {
	funcMap := template.FuncMap{
		"formatRow": func(severity, rule, resource, desc string) string {
			if len(desc) > c.config.DescriptionWidth {
				desc = desc[:c.config.DescriptionWidth-3] + "..."
			}
			return fmt.Sprintf("| %-*s | %-*s | %-*s | %-*s |",
				c.config.SeverityWidth, severity,
				c.config.RuleWidth, rule,
				c.config.ResourceWidth, resource,
				c.config.DescriptionWidth, desc)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.SeverityWidth+2),
				strings.Repeat("-", c.config.RuleWidth+2),
				strings.Repeat("-", c.config.ResourceWidth+2),
				strings.Repeat("-", c.config.DescriptionWidth+2))
		},
		"severity": func(s domain.Severity) string {
			return s.String()
		},
	}

	tmpl := `
Compliance Scan {{.ID}}

Account: {{.AccountID}} ({{.Region}})
Score: {{.ComplianceScore}}/100 over {{.ChecksEvaluated}} checks

{{separator}}
{{formatRow "Severity" "Rule" "Resource" "Description"}}
{{separator}}
{{range .Violations}}{{formatRow (severity .Severity) .RuleID .ResourceID .Description}}
{{end}}{{separator}}
`

	t, err := template.New("scan").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, result)
}
