package export

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/scanio-labs/retriage/internal/findings"
)

// summaryMarkdown is the per-run review document: one block per finding with
// the disposition spelled out, plus a permalink when the source tree sits in
// a recognizable git checkout.
const summaryMarkdown = `# Triage report
{{ range . }}
## {{ .RuleID }} ({{ .Severity }})

**File:** ` + "`{{ .File }}`" + `  **Line:** {{ .Line }}
{{- if .Permalink }}
**Permalink:** {{ .Permalink }}
{{- end }}
**Message:** {{ trim .Message }}
**Status:** {{ .Status }}
**Label:** {{ .Label }}
**Comment:** {{ trim .Comment }}
**Confidence:** {{ printf "%.2f" .Confidence }}
{{ end }}`

type summaryItem struct {
	RuleID     string
	Severity   string
	File       string
	Line       string
	Permalink  string
	Message    string
	Status     string
	Label      string
	Comment    string
	Confidence float64
}

func newSummaryTemplate() (*template.Template, error) {
	return template.New("summary.md").
		Funcs(template.FuncMap{
			"trim": strings.TrimSpace,
		}).
		Parse(summaryMarkdown)
}

func (w *Writer) writeSummaryMarkdown(path string, records []findings.Record) error {
	tmpl, err := newSummaryTemplate()
	if err != nil {
		return fmt.Errorf("failed to parse summary template: %w", err)
	}

	items := make([]summaryItem, 0, len(records))
	for _, rec := range records {
		item := summaryItem{
			RuleID:     rec.RuleID,
			Severity:   string(rec.Triage.SeverityEffective),
			File:       displayFile(rec),
			Line:       lineCell(rec.StartLine),
			Message:    rec.Message,
			Status:     string(rec.Triage.Status),
			Label:      rec.Triage.Label,
			Comment:    rec.Triage.Comment,
			Confidence: rec.Triage.Confidence,
		}
		if link, ok := Permalink(w.meta, rec); ok {
			item.Permalink = link
		}
		items = append(items, item)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed creating file: %w", err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, items); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return nil
}
