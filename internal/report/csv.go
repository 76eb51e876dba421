package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/internal/findings"
	"github.com/scanio-labs/retriage/pkg/shared/files"
)

type csvParser struct {
	logger hclog.Logger
}

// csvColumnSynonyms maps a canonical column to the header names that carry
// it, in priority order. Header matching is case-insensitive.
var csvColumnSynonyms = map[string][]string{
	"rule":     {"rule_id", "rule", "id"},
	"title":    {"title", "name"},
	"message":  {"message", "msg", "description"},
	"severity": {"severity", "level"},
	"file":     {"file_path", "file", "path"},
	"line":     {"start_line", "line"},
	"end_line": {"end_line"},
	"snippet":  {"snippet", "code"},
}

func (p *csvParser) Format() Format {
	return FormatCSV
}

// Parse reads a delimited report. The delimiter is sniffed from the header
// line, unknown columns are preserved in the raw payload and broken rows are
// skipped rather than failing the whole report.
func (p *csvParser) Parse(inputPath string) ([]findings.Finding, error) {
	text, err := files.ReadTextFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV report %q: %w", inputPath, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("CSV report %q is empty", inputPath)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(firstLine(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header of %q: %w", inputPath, err)
	}
	columns := mapColumns(header)

	var collected []findings.Finding
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.logger.Debug("skipping broken CSV row", "path", inputPath, "error", err)
			continue
		}
		collected = append(collected, findingFromRow(header, columns, row))
	}
	p.logger.Debug("parsed CSV report", "path", inputPath, "findings", len(collected))
	return collected, nil
}

// sniffDelimiter picks the delimiter with the most occurrences on the header
// line. Comma wins ties.
func sniffDelimiter(line string) rune {
	best, bestCount := ',', -1
	for _, cand := range []rune{',', ';', '\t'} {
		if count := strings.Count(line, string(cand)); count > bestCount {
			best, bestCount = cand, count
		}
	}
	return best
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for canonical, synonyms := range csvColumnSynonyms {
		for _, synonym := range synonyms {
			idx, found := headerIndex(header, synonym)
			if found {
				columns[canonical] = idx
				break
			}
		}
	}
	return columns
}

func headerIndex(header []string, name string) (int, bool) {
	for i, cell := range header {
		if strings.EqualFold(strings.TrimSpace(cell), name) {
			return i, true
		}
	}
	return 0, false
}

func findingFromRow(header []string, columns map[string]int, row []string) findings.Finding {
	cell := func(canonical string) string {
		idx, ok := columns[canonical]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	f := findings.Finding{
		RuleID:           cell("rule"),
		Title:            cell("title"),
		SeverityReported: severityFromFreeText(cell("severity")),
		FileHint:         cell("file"),
		StartLine:        parseLineNumber(cell("line")),
		EndLine:          parseLineNumber(cell("end_line")),
		Message:          cell("message"),
		Snippet:          cell("snippet"),
		Raw:              rowRaw(header, row),
	}
	if f.RuleID == "" {
		f.RuleID = findings.UnknownRule
	}
	if f.Title == "" {
		f.Title = f.RuleID
	}
	if f.FileHint == "" {
		f.FileHint = findings.UnknownFile
	}
	if f.EndLine == 0 {
		f.EndLine = f.StartLine
	}
	return f
}

// severityFromFreeText maps scanner-specific severity strings through loose
// substring checks: "err" means critical, "warn" medium, "note" info and
// anything else lands on medium.
func severityFromFreeText(s string) findings.Severity {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(s, "err"):
		return findings.SeverityCritical
	case strings.Contains(s, "warn"):
		return findings.SeverityMedium
	case strings.Contains(s, "note"):
		return findings.SeverityInfo
	default:
		return findings.SeverityMedium
	}
}

// parseLineNumber returns 0 for anything that is not a positive integer, so
// absent values stay distinguishable from line 0.
func parseLineNumber(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func rowRaw(header []string, row []string) map[string]interface{} {
	raw := make(map[string]interface{}, len(header))
	for i, name := range header {
		if i >= len(row) {
			break
		}
		raw[strings.TrimSpace(name)] = row[i]
	}
	return raw
}
