package report

import (
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/internal/findings"
)

func newTestPDFTextParser() *pdfTextParser {
	return newPDFTextParser(Options{}, hclog.NewNullLogger())
}

func TestPDFTextParseBlocks(t *testing.T) {
	text := strings.Join([]string{
		"Analysis results",
		"",
		"[1] PYTHON_SQL_INJECTION - Possible SQL injection",
		"src/db/query.py:42#45",
		"Level: Critical",
		"Status: Not processed",
		"42: query = \"SELECT * FROM users WHERE id = %s\" % uid",
		"43: cursor.execute(query)",
		"Trace",
		"The full trace is omitted here.",
		"",
		"[2] PYTHON_CODE_EVAL - Eval used on request data",
		"main.py:7",
		"7: eval(data)",
	}, "\n")

	parsed := newTestPDFTextParser().parseText(text)
	if len(parsed) != 2 {
		t.Fatalf("parseText() returned %d findings, want 2", len(parsed))
	}

	first := parsed[0]
	if first.RuleID != "PYTHON_SQL_INJECTION" {
		t.Errorf("RuleID = %q, want the rule from the block title", first.RuleID)
	}
	if first.FileHint != "src/db/query.py" {
		t.Errorf("FileHint = %q", first.FileHint)
	}
	if first.StartLine != 42 || first.EndLine != 45 {
		t.Errorf("lines = %d..%d, want the 42#45 range", first.StartLine, first.EndLine)
	}
	if first.SeverityReported != findings.SeverityCritical {
		t.Errorf("SeverityReported = %q, want critical from the Level line", first.SeverityReported)
	}
	if !strings.Contains(first.Snippet, "cursor.execute(query)") {
		t.Errorf("Snippet = %q, want the numbered code lines", first.Snippet)
	}
	if strings.Contains(first.Snippet, "Trace") || strings.Contains(first.Snippet, "omitted") {
		t.Errorf("Snippet = %q, trace section must not leak in", first.Snippet)
	}
	if first.Raw["status"] != "Not processed" {
		t.Errorf("Raw status = %v, want \"Not processed\"", first.Raw["status"])
	}

	second := parsed[1]
	if second.RuleID != "PYTHON_CODE_EVAL" {
		t.Errorf("RuleID = %q", second.RuleID)
	}
	if second.FileHint != "main.py" || second.StartLine != 7 || second.EndLine != 7 {
		t.Errorf("location = %s:%d..%d, want main.py:7..7", second.FileHint, second.StartLine, second.EndLine)
	}
	if second.SeverityReported != findings.SeverityMedium {
		t.Errorf("SeverityReported = %q, no Level line must default to medium", second.SeverityReported)
	}
	if second.Snippet != "eval(data)" {
		t.Errorf("Snippet = %q", second.Snippet)
	}
}

func TestPDFTextRussianKeywords(t *testing.T) {
	text := strings.Join([]string{
		"[CONFIG_CRYPTO_KEY_HARDCODED]",
		"config/settings.py:10",
		"Уровень: Критический",
		"Статус: Не обработано",
		"10: SECRET_KEY = \"abc123\"",
	}, "\n")

	parsed := newTestPDFTextParser().parseText(text)
	if len(parsed) != 1 {
		t.Fatalf("parseText() returned %d findings, want 1", len(parsed))
	}
	f := parsed[0]
	if f.RuleID != "CONFIG_CRYPTO_KEY_HARDCODED" {
		t.Errorf("RuleID = %q, want the bracketed rule name", f.RuleID)
	}
	if f.SeverityReported != findings.SeverityCritical {
		t.Errorf("SeverityReported = %q, want critical from the Russian level", f.SeverityReported)
	}
	if f.Raw["status"] != "Не обработано" {
		t.Errorf("Raw status = %v", f.Raw["status"])
	}
	if !strings.Contains(f.Snippet, "SECRET_KEY") {
		t.Errorf("Snippet = %q", f.Snippet)
	}
}

func TestPDFTextFallbackSnippet(t *testing.T) {
	text := strings.Join([]string{
		"lib/util.py:3",
		"some prose without punctuation marks",
		"value = secret",
	}, "\n")

	parsed := newTestPDFTextParser().parseText(text)
	if len(parsed) != 1 {
		t.Fatalf("parseText() returned %d findings, want 1", len(parsed))
	}
	if parsed[0].Snippet != "value = secret" {
		t.Errorf("Snippet = %q, the loose fallback should pick the assignment", parsed[0].Snippet)
	}
	if parsed[0].RuleID != findings.UnknownRule {
		t.Errorf("RuleID = %q, no title above means %q", parsed[0].RuleID, findings.UnknownRule)
	}
}

func TestPDFTextSnippetCap(t *testing.T) {
	lines := []string{"app.py:1"}
	for i := 1; i <= 40; i++ {
		lines = append(lines, strings.Repeat(" ", i%3)+"print(step_"+strings.Repeat("x", i%5)+"(arg))")
	}
	parser := newPDFTextParser(Options{SnippetMaxLines: 5}, hclog.NewNullLogger())

	parsed := parser.parseText(strings.Join(lines, "\n"))
	if len(parsed) != 1 {
		t.Fatalf("parseText() returned %d findings, want 1", len(parsed))
	}
	got := strings.Split(parsed[0].Snippet, "\n")
	if len(got) > 5 {
		t.Errorf("snippet has %d lines, cap is 5", len(got))
	}
}

func TestPDFTextNeverPanicsOnGarbage(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		"::::",
		"a.py:",
		":12",
		"[unclosed",
		strings.Repeat("x:1 ", 1000),
		"файл без якорей и структуры",
	}
	parser := newTestPDFTextParser()
	for _, in := range inputs {
		parser.parseText(in)
	}
}

func TestMatchLocationAnchor(t *testing.T) {
	tests := []struct {
		line      string
		wantPath  string
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{"src/app.py:42", "src/app.py", 42, 0, true},
		{"see src/app.py:42#45 for details", "src/app.py", 42, 45, true},
		{"main.py:7", "main.py", 7, 0, true},
		{"Note: 5", "", 0, 0, false},
		{"127.0.0.1:8080", "", 0, 0, false},
		{"no anchors here", "", 0, 0, false},
		{"deep/nested\\win.cs:3", "deep/nested\\win.cs", 3, 0, true},
	}
	for _, tt := range tests {
		anchor, ok := matchLocationAnchor(tt.line)
		if ok != tt.wantOK {
			t.Errorf("matchLocationAnchor(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if anchor.path != tt.wantPath || anchor.startLine != tt.wantStart || anchor.endLine != tt.wantEnd {
			t.Errorf("matchLocationAnchor(%q) = %+v, want %s:%d#%d",
				tt.line, anchor, tt.wantPath, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestIsPathLike(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"src/app.py", true},
		{"app.py", true},
		{"readme.md", true},
		{"win\\path.cs", true},
		{"Note", false},
		{"127.0.0.1", false},
		{"5", false},
		{"archive.tarball123x", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := isPathLike(tt.in); got != tt.want {
			t.Errorf("isPathLike(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSeverityFromLevelWord(t *testing.T) {
	tests := []struct {
		in   string
		want findings.Severity
	}{
		{"Critical", findings.SeverityCritical},
		{"критический", findings.SeverityCritical},
		{"High", findings.SeverityCritical},
		{"Medium", findings.SeverityMedium},
		{"Warning", findings.SeverityMedium},
		{"Low", findings.SeverityLow},
		{"низкий", findings.SeverityLow},
		{"Info", findings.SeverityInfo},
		{"", findings.SeverityMedium},
		{"bizarre", findings.SeverityMedium},
	}
	for _, tt := range tests {
		if got := severityFromLevelWord(tt.in); got != tt.want {
			t.Errorf("severityFromLevelWord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
