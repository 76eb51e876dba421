package report

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/internal/findings"
	"github.com/scanio-labs/retriage/pkg/shared/files"
)

// locationAnchorRE matches "path:NN" and "path:NN#MM" location references.
// Whether a match really is a path is decided by isPathLike afterwards.
var locationAnchorRE = regexp.MustCompile(`([\w./\\-]+):(\d+)(?:#(\d+))?`)

// sectionStopPrefixes are report section headers that end snippet collection
// once code lines have been seen. Before that they are just skipped.
var sectionStopPrefixes = []string{
	"trace", "recommendation", "reference", "description", "details",
	"see also", "related warning",
	"трасса", "рекомендаци", "описание", "подробност", "см. также",
}

var boilerplateContains = []string{
	"static analysis report", "analysis results", "generated by",
	"copyright", "all rights reserved", "confidential",
	"отчет о результатах",
}

var boilerplatePrefixes = []string{"page ", "страница "}

// pdfTextParser recovers findings from text extracted out of a PDF report.
// Extraction is lossy: it keeps what it can attribute to a location anchor
// and silently drops the rest, but it never fails on strange input.
type pdfTextParser struct {
	logger hclog.Logger
	opts   Options
}

func newPDFTextParser(opts Options, logger hclog.Logger) *pdfTextParser {
	return &pdfTextParser{logger: logger, opts: opts.withDefaults()}
}

func (p *pdfTextParser) Format() Format {
	return FormatPDFText
}

func (p *pdfTextParser) Parse(inputPath string) ([]findings.Finding, error) {
	text, err := files.ReadTextFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read report text %q: %w", inputPath, err)
	}
	collected := p.parseText(text)
	p.logger.Debug("parsed report text", "path", inputPath, "findings", len(collected))
	return collected, nil
}

func (p *pdfTextParser) parseText(text string) []findings.Finding {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var out []findings.Finding
	i := 0
	for i < len(lines) {
		anchor, ok := matchLocationAnchor(lines[i])
		if !ok {
			i++
			continue
		}
		finding, next := p.harvestBlock(lines, i, anchor)
		out = append(out, finding)
		i = next
	}
	return out
}

type locationAnchor struct {
	path      string
	startLine int
	endLine   int
	matched   string
}

func matchLocationAnchor(line string) (locationAnchor, bool) {
	for _, m := range locationAnchorRE.FindAllStringSubmatch(line, -1) {
		if !isPathLike(m[1]) {
			continue
		}
		start, err := strconv.Atoi(m[2])
		if err != nil || start <= 0 {
			continue
		}
		anchor := locationAnchor{path: m[1], startLine: start, matched: m[0]}
		if m[3] != "" {
			if end, err := strconv.Atoi(m[3]); err == nil && end > 0 {
				anchor.endLine = end
			}
		}
		return anchor, true
	}
	return locationAnchor{}, false
}

// isPathLike separates file references from prose like "Note: 5". A path
// needs a separator or a short alphanumeric extension with a letter in it,
// which also keeps IP:port pairs out.
func isPathLike(s string) bool {
	if strings.ContainsAny(s, "/\\") {
		return true
	}
	idx := strings.LastIndexByte(s, '.')
	if idx <= 0 || idx == len(s)-1 {
		return false
	}
	ext := s[idx+1:]
	if len(ext) > 8 {
		return false
	}
	hasLetter := false
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return hasLetter
}

// harvestBlock walks the lines after an anchor, recovering severity and
// status keywords and collecting code-looking lines into a snippet. It
// returns the finding and the index scanning should resume from.
func (p *pdfTextParser) harvestBlock(lines []string, anchorIdx int, anchor locationAnchor) (findings.Finding, int) {
	windowEnd := anchorIdx + 1 + p.opts.ScanWindow
	if windowEnd > len(lines) {
		windowEnd = len(lines)
	}
	ext := strings.ToLower(filepath.Ext(anchor.path))

	var code []string
	codeStarted := false
	levelWord := ""
	statusText := ""

	next := windowEnd
	blockEnd := windowEnd
	for j := anchorIdx + 1; j < windowEnd; j++ {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" {
			continue
		}
		if _, ok := matchLocationAnchor(lines[j]); ok {
			next, blockEnd = j, j
			break
		}
		if isRuleTitleLine(trimmed) {
			next, blockEnd = j, j
			break
		}
		if value, ok := keywordValue(lines[j], "level", "уровень"); ok && levelWord == "" {
			levelWord = firstWord(value)
			continue
		}
		if value, ok := keywordValue(lines[j], "status", "статус"); ok && statusText == "" {
			statusText = value
			continue
		}
		if isSectionHeader(trimmed) {
			if codeStarted {
				next, blockEnd = j+1, j
				break
			}
			continue
		}
		if content, ok := p.collectCode(lines, j, ext); ok {
			codeStarted = true
			if content != "" {
				code = append(code, content)
			}
		}
	}

	snippet := p.buildSnippet(code)
	if snippet == "" {
		snippet = p.fallbackSnippet(lines, anchorIdx+1, blockEnd)
	}

	raw := map[string]interface{}{"anchor": anchor.matched}
	if levelWord != "" {
		raw["level"] = levelWord
	}
	if statusText != "" {
		raw["status"] = statusText
	}

	f := findings.Finding{
		RuleID:           ruleFromTitleAbove(lines, anchorIdx),
		SeverityReported: severityFromLevelWord(levelWord),
		FileHint:         anchor.path,
		StartLine:        anchor.startLine,
		EndLine:          anchor.endLine,
		Snippet:          snippet,
		Raw:              raw,
	}
	if f.EndLine == 0 {
		f.EndLine = f.StartLine
	}
	return f, next
}

// collectCode decides whether line j belongs to the snippet and what part of
// it to keep. A bare line number contributes nothing itself but still opens
// code collection when real code follows it.
func (p *pdfTextParser) collectCode(lines []string, j int, ext string) (string, bool) {
	trimmed := strings.TrimSpace(lines[j])
	if hasREPLPrefix(trimmed) {
		return trimmed, true
	}
	if rest, sep, ok := stripLineNumber(trimmed); ok {
		if rest == "" {
			if nxt := nextNonBlank(lines, j+1); nxt != "" && looksLikeCode(nxt, ext) {
				return "", true
			}
			return "", false
		}
		if sep == ':' {
			return rest, true
		}
		if looksLikeCode(rest, ext) {
			return rest, true
		}
		return "", false
	}
	if looksLikeCode(trimmed, ext) {
		return trimmed, true
	}
	return "", false
}

// buildSnippet post-filters collected lines: boilerplate, prose-length lines
// without code punctuation and duplicates go away, and the result is capped.
func (p *pdfTextParser) buildSnippet(code []string) string {
	seen := make(map[string]struct{})
	var keep []string
	for _, line := range code {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isBoilerplate(trimmed) {
			continue
		}
		if utf8.RuneCountInString(trimmed) > 80 && !strings.ContainsAny(trimmed, codePunctuation) {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		keep = append(keep, trimmed)
		if len(keep) >= p.opts.SnippetMaxLines {
			break
		}
	}
	return strings.Join(keep, "\n")
}

// fallbackSnippet grabs up to three loosely code-shaped lines when the
// strict pass found nothing.
func (p *pdfTextParser) fallbackSnippet(lines []string, from, to int) string {
	var keep []string
	for j := from; j < to && j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" || isRuleTitleLine(trimmed) || isSectionHeader(trimmed) || isBoilerplate(trimmed) {
			continue
		}
		if _, ok := keywordValue(lines[j], "level", "уровень", "status", "статус"); ok {
			continue
		}
		if !looseCodeCandidate(trimmed) {
			continue
		}
		keep = append(keep, trimmed)
		if len(keep) >= 3 {
			break
		}
	}
	return strings.Join(keep, "\n")
}

// ruleFromTitleAbove scans backwards for the nearest "[..] RULE - title"
// block heading and extracts the rule identifier from it.
func ruleFromTitleAbove(lines []string, anchorIdx int) string {
	for j := anchorIdx - 1; j >= 0; j-- {
		trimmed := strings.TrimSpace(lines[j])
		if !isRuleTitleLine(trimmed) {
			continue
		}
		head, after, _ := strings.Cut(trimmed, "]")
		candidate, _, _ := strings.Cut(after, "-")
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			candidate = strings.TrimSpace(strings.TrimPrefix(head, "["))
		}
		if candidate != "" && !isAllDigits(candidate) {
			return candidate
		}
	}
	return findings.UnknownRule
}

func isRuleTitleLine(s string) bool {
	return strings.HasPrefix(s, "[") && strings.Contains(s, "]")
}

// keywordValue pulls the value out of lines like "Level: Critical" or
// "Статус Не обработано". The keyword must sit on a word boundary.
func keywordValue(line string, keywords ...string) (string, bool) {
	lowered := strings.ToLower(line)
	for _, kw := range keywords {
		idx := strings.Index(lowered, kw)
		if idx < 0 {
			continue
		}
		if idx > 0 && isLetterByte(lowered[idx-1]) {
			continue
		}
		after := idx + len(kw)
		if after >= len(line) {
			continue
		}
		if c := line[after]; c != ' ' && c != '\t' && c != ':' {
			continue
		}
		value := strings.TrimSpace(strings.TrimLeft(line[after:], " \t:"))
		if value == "" {
			continue
		}
		return value, true
	}
	return "", false
}

func isSectionHeader(s string) bool {
	if utf8.RuneCountInString(s) > 40 {
		return false
	}
	head, tail, cut := strings.Cut(s, ":")
	if cut && strings.TrimSpace(tail) != "" {
		return false
	}
	lowered := strings.ToLower(strings.TrimSpace(strings.TrimRight(head, ".")))
	for _, prefix := range sectionStopPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	return false
}

func isBoilerplate(s string) bool {
	if isAllDigits(s) {
		return true
	}
	lowered := strings.ToLower(s)
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	for _, phrase := range boilerplateContains {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

func severityFromLevelWord(word string) findings.Severity {
	w := strings.ToLower(strings.TrimSpace(word))
	switch {
	case w == "":
		return findings.SeverityMedium
	case strings.Contains(w, "crit"), strings.Contains(w, "high"), strings.Contains(w, "err"),
		strings.Contains(w, "критич"), strings.Contains(w, "высок"):
		return findings.SeverityCritical
	case strings.Contains(w, "med"), strings.Contains(w, "warn"), strings.Contains(w, "средн"):
		return findings.SeverityMedium
	case strings.Contains(w, "low"), strings.Contains(w, "низк"):
		return findings.SeverityLow
	case strings.Contains(w, "info"), strings.Contains(w, "note"), strings.Contains(w, "инфо"):
		return findings.SeverityInfo
	default:
		return findings.SeverityMedium
	}
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func nextNonBlank(lines []string, from int) string {
	for j := from; j < len(lines) && j < from+5; j++ {
		if t := strings.TrimSpace(lines[j]); t != "" {
			return t
		}
	}
	return ""
}

func isLetterByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
