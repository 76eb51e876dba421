package report

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scanio-labs/retriage/internal/findings"
)

type sarifParser struct {
	logger hclog.Logger
}

func (p *sarifParser) Format() Format {
	return FormatSARIF
}

// Parse reads a SARIF report. A file that is not valid JSON is a hard error;
// individual results missing optional pieces degrade to sentinel values.
func (p *sarifParser) Parse(inputPath string) ([]findings.Finding, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SARIF report %q: %w", inputPath, err)
	}

	var report sarif.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("malformed SARIF report %q: %w", inputPath, err)
	}

	var collected []findings.Finding
	for _, run := range report.Runs {
		if run == nil {
			continue
		}
		collected = append(collected, p.parseRun(run)...)
	}
	p.logger.Debug("parsed SARIF report", "path", inputPath, "findings", len(collected))
	return collected, nil
}

func (p *sarifParser) parseRun(run *sarif.Run) []findings.Finding {
	titles := ruleTitles(run)

	var out []findings.Finding
	for _, result := range run.Results {
		if result == nil {
			continue
		}
		if len(result.Suppressions) > 0 {
			continue
		}
		out = append(out, p.findingFromResult(run, result, titles))
	}
	return out
}

func (p *sarifParser) findingFromResult(run *sarif.Run, result *sarif.Result, titles map[string]string) findings.Finding {
	f := findings.Finding{
		RuleID:           resultRuleID(result),
		SeverityReported: severityFromLevel(result.Level),
		FileHint:         findings.UnknownFile,
		Raw:              rawMap(result),
	}
	f.Title = titles[f.RuleID]
	if result.Message.Text != nil {
		f.Message = *result.Message.Text
	}

	loc := firstLocation(result)
	if loc != nil && loc.PhysicalLocation != nil {
		phys := loc.PhysicalLocation
		if uri := artifactURI(run, phys.ArtifactLocation); uri != "" {
			f.FileHint = uri
		}
		if region := phys.Region; region != nil {
			f.StartLine = positiveOrZero(region.StartLine)
			f.StartCol = positiveOrZero(region.StartColumn)
			f.EndLine = positiveOrZero(region.EndLine)
			f.EndCol = positiveOrZero(region.EndColumn)
			if region.Snippet != nil && region.Snippet.Text != nil {
				f.Snippet = *region.Snippet.Text
			}
		}
	}
	if f.EndLine == 0 {
		f.EndLine = f.StartLine
	}
	return f
}

// resultRuleID prefers the inline ruleId, then the rule reference, then the
// unknown-rule sentinel.
func resultRuleID(result *sarif.Result) string {
	if result.RuleID != nil && strings.TrimSpace(*result.RuleID) != "" {
		return strings.TrimSpace(*result.RuleID)
	}
	if result.Rule != nil && result.Rule.Id != nil && strings.TrimSpace(*result.Rule.Id) != "" {
		return strings.TrimSpace(*result.Rule.Id)
	}
	return findings.UnknownRule
}

func severityFromLevel(level *string) findings.Severity {
	if level == nil {
		return findings.SeverityMedium
	}
	switch strings.ToLower(strings.TrimSpace(*level)) {
	case "error":
		return findings.SeverityCritical
	case "warning":
		return findings.SeverityMedium
	case "note", "none":
		return findings.SeverityInfo
	default:
		return findings.SeverityMedium
	}
}

func firstLocation(result *sarif.Result) *sarif.Location {
	if len(result.Locations) > 0 && result.Locations[0] != nil {
		return result.Locations[0]
	}
	if len(result.RelatedLocations) > 0 && result.RelatedLocations[0] != nil {
		return result.RelatedLocations[0]
	}
	return nil
}

// artifactURI resolves the location URI, following the artifact index
// indirection some tools emit instead of an inline uri.
func artifactURI(run *sarif.Run, art *sarif.ArtifactLocation) string {
	if art == nil {
		return ""
	}
	if art.URI != nil && strings.TrimSpace(*art.URI) != "" {
		return normalizeReportURI(*art.URI)
	}
	if art.Index != nil {
		idx := int(*art.Index)
		if idx >= 0 && idx < len(run.Artifacts) {
			indexed := run.Artifacts[idx]
			if indexed != nil && indexed.Location != nil && indexed.Location.URI != nil {
				return normalizeReportURI(*indexed.Location.URI)
			}
		}
	}
	return ""
}

// normalizeReportURI strips the file scheme, percent-decodes the path and
// repairs Windows drive URIs of the "/C:/..." shape.
func normalizeReportURI(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "file://")
	if decoded, err := url.PathUnescape(trimmed); err == nil {
		trimmed = decoded
	}
	if len(trimmed) >= 3 && trimmed[0] == '/' && trimmed[2] == ':' {
		trimmed = trimmed[1:]
	}
	return trimmed
}

func ruleTitles(run *sarif.Run) map[string]string {
	titles := make(map[string]string)
	if run.Tool.Driver == nil {
		return titles
	}
	for _, rule := range run.Tool.Driver.Rules {
		if rule == nil || rule.ID == "" {
			continue
		}
		if rule.ShortDescription != nil && rule.ShortDescription.Text != nil {
			titles[rule.ID] = *rule.ShortDescription.Text
		}
	}
	return titles
}

func positiveOrZero(v *int) int {
	if v == nil || *v <= 0 {
		return 0
	}
	return *v
}

func rawMap(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
