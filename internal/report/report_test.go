package report

import (
	"testing"

	"github.com/hashicorp/go-hclog"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path   string
		want   Format
		wantOK bool
	}{
		{"scan.sarif", FormatSARIF, true},
		{"scan.json", FormatSARIF, true},
		{"SCAN.SARIF", FormatSARIF, true},
		{"report.csv", FormatCSV, true},
		{"report.tsv", FormatCSV, true},
		{"report.pdf", FormatPDF, true},
		{"extract.txt", FormatPDFText, true},
		{"extract.log", FormatPDFText, true},
		{"binary.exe", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		got, ok := DetectFormat(tt.path)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("DetectFormat(%q) = %q, %v, want %q, %v", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNewParser(t *testing.T) {
	for _, format := range Formats {
		parser, err := New(format, Options{}, hclog.NewNullLogger())
		if err != nil {
			t.Errorf("New(%q) error = %v", format, err)
			continue
		}
		if parser.Format() != format {
			t.Errorf("New(%q).Format() = %q", format, parser.Format())
		}
	}
	if _, err := New("xml", Options{}, hclog.NewNullLogger()); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestParseFileAutoDetect(t *testing.T) {
	path := writeReportFixture(t, "report.csv", "rule_id,severity,file_path\nR1,error,src/a.py\n")
	parsed, err := ParseFile(path, "", Options{}, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(parsed) != 1 || parsed[0].RuleID != "R1" {
		t.Fatalf("unexpected findings %+v", parsed)
	}

	if _, err := ParseFile("mystery.bin", "", Options{}, hclog.NewNullLogger()); err == nil {
		t.Error("expected an error when the format cannot be detected")
	}
}

func TestStripLineNumber(t *testing.T) {
	tests := []struct {
		in       string
		wantRest string
		wantSep  byte
		wantOK   bool
	}{
		{"42: code()", "code()", ':', true},
		{"42. code()", "code()", '.', true},
		{"42 code()", "code()", ' ', true},
		{"42", "", 0, true},
		{"code()", "code()", 0, false},
		{"42x", "42x", 0, false},
	}
	for _, tt := range tests {
		rest, sep, ok := stripLineNumber(tt.in)
		if rest != tt.wantRest || sep != tt.wantSep || ok != tt.wantOK {
			t.Errorf("stripLineNumber(%q) = %q, %q, %v, want %q, %q, %v",
				tt.in, rest, sep, ok, tt.wantRest, tt.wantSep, tt.wantOK)
		}
	}
}

func TestLooksLikeCode(t *testing.T) {
	tests := []struct {
		line string
		ext  string
		want bool
	}{
		{"cursor.execute(query)", ".py", true},
		{"def handler(request):", ".py", true},
		{"return render(request)", ".py", true},
		{"plain english sentence here", ".py", false},
		{"database: postgres", ".yml", true},
		{"- item", ".yml", true},
		{"[section]", ".ini", true},
		{"key = value", ".ini", true},
		{"<div class=\"x\">", ".html", true},
		{"{\"key\": 1}", ".json", true},
		{"just words", ".yml", false},
	}
	for _, tt := range tests {
		if got := looksLikeCode(tt.line, tt.ext); got != tt.want {
			t.Errorf("looksLikeCode(%q, %q) = %v, want %v", tt.line, tt.ext, got, tt.want)
		}
	}
}
