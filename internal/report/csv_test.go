package report

import (
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/internal/findings"
)

func TestCSVParseSemicolon(t *testing.T) {
	content := "rule;level;path;line;end_line;msg;code;assignee\n" +
		"B608;error;src/db/query.py;42;45;possible sql injection;cursor.execute(q);alice\n" +
		";;;;;;;\n"

	parser := &csvParser{logger: hclog.NewNullLogger()}
	parsed, err := parser.Parse(writeReportFixture(t, "report.csv", content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("Parse() returned %d findings, want 2", len(parsed))
	}

	first := parsed[0]
	if first.RuleID != "B608" {
		t.Errorf("RuleID = %q", first.RuleID)
	}
	if first.SeverityReported != findings.SeverityCritical {
		t.Errorf("SeverityReported = %q, \"error\" must map to critical", first.SeverityReported)
	}
	if first.FileHint != "src/db/query.py" {
		t.Errorf("FileHint = %q", first.FileHint)
	}
	if first.StartLine != 42 || first.EndLine != 45 {
		t.Errorf("lines = %d..%d, want 42..45", first.StartLine, first.EndLine)
	}
	if first.Message != "possible sql injection" {
		t.Errorf("Message = %q", first.Message)
	}
	if first.Snippet != "cursor.execute(q)" {
		t.Errorf("Snippet = %q, \"code\" column must feed the snippet", first.Snippet)
	}
	if first.Raw["assignee"] != "alice" {
		t.Errorf("Raw payload must keep unknown columns, got %v", first.Raw)
	}

	empty := parsed[1]
	if empty.RuleID != findings.UnknownRule {
		t.Errorf("RuleID = %q, want %q", empty.RuleID, findings.UnknownRule)
	}
	if empty.Title != findings.UnknownRule {
		t.Errorf("Title = %q, empty title must fall back to the rule", empty.Title)
	}
	if empty.FileHint != findings.UnknownFile {
		t.Errorf("FileHint = %q, want %q", empty.FileHint, findings.UnknownFile)
	}
	if empty.SeverityReported != findings.SeverityMedium {
		t.Errorf("SeverityReported = %q, empty severity must land on medium", empty.SeverityReported)
	}
	if empty.StartLine != 0 || empty.EndLine != 0 {
		t.Errorf("lines = %d..%d, absent numbers must stay unset", empty.StartLine, empty.EndLine)
	}
}

func TestCSVParseCommaAndDefaults(t *testing.T) {
	content := "rule_id,severity,file_path,start_line\n" +
		"CONFIG_CRYPTO_KEY_HARDCODED,critical,docs/readme.txt,7\n" +
		"HTML_XSS,note,templates/index.html,not-a-number\n"

	parser := &csvParser{logger: hclog.NewNullLogger()}
	parsed, err := parser.Parse(writeReportFixture(t, "report.csv", content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("Parse() returned %d findings, want 2", len(parsed))
	}

	// The free-text ladder only knows err/warn/note substrings, so a literal
	// "critical" does not hit any of them and lands on medium.
	if parsed[0].SeverityReported != findings.SeverityMedium {
		t.Errorf("SeverityReported = %q, want medium for literal \"critical\"", parsed[0].SeverityReported)
	}
	if parsed[0].StartLine != 7 || parsed[0].EndLine != 7 {
		t.Errorf("lines = %d..%d, end must default to start", parsed[0].StartLine, parsed[0].EndLine)
	}
	if parsed[1].SeverityReported != findings.SeverityInfo {
		t.Errorf("SeverityReported = %q, want info for \"note\"", parsed[1].SeverityReported)
	}
	if parsed[1].StartLine != 0 {
		t.Errorf("StartLine = %d, non-numeric values must stay unset", parsed[1].StartLine)
	}
}

func TestCSVParseTabDelimited(t *testing.T) {
	content := "id\tseverity\tfile\nRULE_A\twarning\tsrc/a.py\n"
	parser := &csvParser{logger: hclog.NewNullLogger()}
	parsed, err := parser.Parse(writeReportFixture(t, "report.tsv", content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("Parse() returned %d findings, want 1", len(parsed))
	}
	if parsed[0].RuleID != "RULE_A" || parsed[0].FileHint != "src/a.py" {
		t.Errorf("unexpected finding %+v", parsed[0])
	}
	if parsed[0].SeverityReported != findings.SeverityMedium {
		t.Errorf("SeverityReported = %q, want medium for \"warning\"", parsed[0].SeverityReported)
	}
}

func TestCSVParseShortRow(t *testing.T) {
	content := "rule_id;severity;file_path;message\nRULE_B;error\n"
	parser := &csvParser{logger: hclog.NewNullLogger()}
	parsed, err := parser.Parse(writeReportFixture(t, "report.csv", content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("Parse() returned %d findings, want 1", len(parsed))
	}
	if parsed[0].FileHint != findings.UnknownFile {
		t.Errorf("FileHint = %q, missing cells must fall back to %q", parsed[0].FileHint, findings.UnknownFile)
	}
	if parsed[0].Message != "" {
		t.Errorf("Message = %q, want empty", parsed[0].Message)
	}
}

func TestCSVParseEmpty(t *testing.T) {
	parser := &csvParser{logger: hclog.NewNullLogger()}
	if _, err := parser.Parse(writeReportFixture(t, "empty.csv", "  \n")); err == nil {
		t.Fatal("expected an error for an empty report")
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"a,b,c", ','},
		{"a;b;c", ';'},
		{"a\tb\tc", '\t'},
		{"a;b,c;d", ';'},
		{"a,b;c", ','},
		{"single", ','},
	}
	for _, tt := range tests {
		if got := sniffDelimiter(tt.line); got != tt.want {
			t.Errorf("sniffDelimiter(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestSeverityFromFreeText(t *testing.T) {
	tests := []struct {
		in   string
		want findings.Severity
	}{
		{"error", findings.SeverityCritical},
		{"ERROR", findings.SeverityCritical},
		{"fatal error", findings.SeverityCritical},
		{"warning", findings.SeverityMedium},
		{"Warn", findings.SeverityMedium},
		{"note", findings.SeverityInfo},
		{"critical", findings.SeverityMedium},
		{"high", findings.SeverityMedium},
		{"", findings.SeverityMedium},
	}
	for _, tt := range tests {
		if got := severityFromFreeText(tt.in); got != tt.want {
			t.Errorf("severityFromFreeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
