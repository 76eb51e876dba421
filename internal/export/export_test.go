package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/internal/findings"
	"github.com/scanio-labs/retriage/internal/gitmeta"
	"github.com/scanio-labs/retriage/pkg/shared/config"
)

func exportConfig(folder string) *config.Config {
	cfg := &config.Config{}
	cfg.Export.OutputFolder = folder
	return cfg
}

func disposedRecord() findings.Record {
	rec := findings.NewRecord(findings.Finding{
		RuleID:           "B608",
		SeverityReported: findings.SeverityMedium,
		FileHint:         "app/db.py",
		StartLine:        7,
		Message:          "possible SQL injection",
		Snippet:          "cur.execute(q)",
	})
	rec.Triage = findings.Disposition{
		Status:            findings.StatusFalsePositive,
		SeverityEffective: findings.SeverityInfo,
		Label:             "Test-only SQL usage",
		Comment:           "Lives in tests.",
		Confidence:        0.9,
		Source:            findings.SourceHeuristic,
	}
	return rec
}

func readCSV(t *testing.T, path string, comma rune) (bool, [][]string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	hasBOM := bytes.HasPrefix(data, []byte("\ufeff"))
	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\ufeff")))
	reader.Comma = comma
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return hasBOM, rows
}

func TestWriteAllProducesArtifacts(t *testing.T) {
	folder := t.TempDir()
	w := New(exportConfig(folder), nil, hclog.NewNullLogger())

	res, err := w.WriteAll([]findings.Record{disposedRecord()})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	for _, tc := range []struct {
		path   string
		prefix string
		ext    string
	}{
		{res.WarningsCSV, "warnings_", ".csv"},
		{res.AnnotationsCSV, "ai_annotations_", ".csv"},
		{res.FullJSON, "report_full_", ".json"},
		{res.Summary, "summary_", ".md"},
	} {
		base := filepath.Base(tc.path)
		if !strings.HasPrefix(base, tc.prefix) || !strings.HasSuffix(base, tc.ext) {
			t.Errorf("artifact name %q, want %s<timestamp>%s", base, tc.prefix, tc.ext)
		}
		if _, err := os.Stat(tc.path); err != nil {
			t.Errorf("artifact %s not written: %v", base, err)
		}
	}
}

func TestWriteAllStableNamesInCI(t *testing.T) {
	folder := t.TempDir()
	cfg := exportConfig(folder)
	cfg.Retriage.Mode = "CI"
	w := New(cfg, nil, hclog.NewNullLogger())

	res, err := w.WriteAll(nil)
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	want := map[string]string{
		"warnings.csv":       res.WarningsCSV,
		"ai_annotations.csv": res.AnnotationsCSV,
		"report_full.json":   res.FullJSON,
		"summary.md":         res.Summary,
	}
	for name, path := range want {
		if filepath.Base(path) != name {
			t.Errorf("artifact name = %q, want %q", filepath.Base(path), name)
		}
	}
}

func TestWarningsCSVExtrasAndFlattening(t *testing.T) {
	folder := t.TempDir()
	w := New(exportConfig(folder), nil, hclog.NewNullLogger())

	rec := disposedRecord()
	rec.Message = "line one\nline two"
	rec.Raw = map[string]interface{}{
		"cwe":     "CWE-89",
		"link":    "https://example.com/rule\nwith newline",
		"score":   float64(42),
		"Rule_ID": "B608",
	}
	plain := disposedRecord()
	plain.Raw = nil

	res, err := w.WriteAll([]findings.Record{rec, plain})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	hasBOM, rows := readCSV(t, res.WarningsCSV, ';')
	if !hasBOM {
		t.Error("warnings CSV lacks the UTF-8 BOM")
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}

	wantHeader := []string{"rule_id", "severity", "file", "line", "message", "snippet", "status", "cwe", "link", "score"}
	if len(rows[0]) != len(wantHeader) {
		t.Fatalf("header = %v, want %v", rows[0], wantHeader)
	}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}

	first := rows[1]
	if first[0] != "B608" || first[1] != "medium" || first[2] != "app/db.py" || first[3] != "7" {
		t.Errorf("fixed cells = %v", first[:4])
	}
	if strings.Contains(first[4], "\n") {
		t.Errorf("message not flattened: %q", first[4])
	}
	if first[4] != "line one line two" {
		t.Errorf("message = %q", first[4])
	}
	if first[6] != "false_positive" {
		t.Errorf("status = %q", first[6])
	}
	if first[7] != "CWE-89" || first[9] != "42" {
		t.Errorf("extras = %v", first[7:])
	}
	if strings.Contains(first[8], "\n") {
		t.Errorf("extra cell not flattened: %q", first[8])
	}

	second := rows[2]
	if second[7] != "" || second[8] != "" || second[9] != "" {
		t.Errorf("record without raw columns must leave extras empty, got %v", second[7:])
	}
}

func TestAnnotationsCSV(t *testing.T) {
	folder := t.TempDir()
	w := New(exportConfig(folder), nil, hclog.NewNullLogger())

	res, err := w.WriteAll([]findings.Record{disposedRecord()})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	_, rows := readCSV(t, res.AnnotationsCSV, ';')
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}

	row := rows[1]
	if row[1] != "info" {
		t.Errorf("severity = %q, annotations carry the effective severity", row[1])
	}
	if row[5] != "false_positive" || row[6] != "Test-only SQL usage" || row[7] != "Lives in tests." {
		t.Errorf("disposition cells = %v", row[5:8])
	}
	if row[8] != "0.9" {
		t.Errorf("confidence = %q", row[8])
	}
}

func TestCSVCustomDelimiterNoBOM(t *testing.T) {
	folder := t.TempDir()
	cfg := exportConfig(folder)
	cfg.Export.CSVDelimiter = ","
	off := false
	cfg.Export.UTF8BOM = &off
	w := New(cfg, nil, hclog.NewNullLogger())

	res, err := w.WriteAll([]findings.Record{disposedRecord()})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	hasBOM, rows := readCSV(t, res.WarningsCSV, ',')
	if hasBOM {
		t.Error("BOM written despite utf8_bom: false")
	}
	if len(rows) != 2 || rows[1][0] != "B608" {
		t.Errorf("rows = %v", rows)
	}
}

func TestFullJSONRoundTrip(t *testing.T) {
	folder := t.TempDir()
	w := New(exportConfig(folder), nil, hclog.NewNullLogger())

	res, err := w.WriteAll([]findings.Record{disposedRecord()})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	data, err := os.ReadFile(res.FullJSON)
	if err != nil {
		t.Fatal(err)
	}
	var decoded []findings.Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("full report is not valid JSON: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("decoded %d records", len(decoded))
	}
	if decoded[0].Triage.Label != "Test-only SQL usage" || decoded[0].Triage.Confidence != 0.9 {
		t.Errorf("triage lost in round trip: %+v", decoded[0].Triage)
	}
}

func TestFullJSONEmptyBatch(t *testing.T) {
	folder := t.TempDir()
	w := New(exportConfig(folder), nil, hclog.NewNullLogger())

	res, err := w.WriteAll(nil)
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	data, err := os.ReadFile(res.FullJSON)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("empty batch = %q, want []", data)
	}
}

func TestSummaryMarkdown(t *testing.T) {
	folder := t.TempDir()
	w := New(exportConfig(folder), nil, hclog.NewNullLogger())

	res, err := w.WriteAll([]findings.Record{disposedRecord()})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	data, err := os.ReadFile(res.Summary)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		"# Triage report",
		"## B608 (info)",
		"**File:** `app/db.py`",
		"**Line:** 7",
		"**Status:** false_positive",
		"**Label:** Test-only SQL usage",
		"**Comment:** Lives in tests.",
		"**Confidence:** 0.90",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Permalink") {
		t.Error("summary carries a permalink without repository metadata")
	}
}

func TestWriteFindingsSnapshot(t *testing.T) {
	folder := t.TempDir()
	w := New(exportConfig(folder), nil, hclog.NewNullLogger())

	res, err := w.WriteFindings([]findings.Record{disposedRecord()})
	if err != nil {
		t.Fatalf("WriteFindings: %v", err)
	}
	if res.AnnotationsCSV != "" || res.Summary != "" {
		t.Errorf("findings snapshot must not produce triage artifacts: %+v", res)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("artifacts written = %v, want the CSV and JSON pair", names)
	}
}

func TestSummaryMarkdownWithPermalink(t *testing.T) {
	folder := t.TempDir()
	commit := "abc123"
	meta := &gitmeta.Metadata{
		CommitHash: &commit,
		RemoteURL:  "git@github.com:acme/app.git",
	}
	w := New(exportConfig(folder), meta, hclog.NewNullLogger())

	rec := disposedRecord()
	rec.ResolvedPath = "app/db.py"

	res, err := w.WriteAll([]findings.Record{rec})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	data, err := os.ReadFile(res.Summary)
	if err != nil {
		t.Fatal(err)
	}
	want := "**Permalink:** https://github.com/acme/app/blob/abc123/app/db.py#L7"
	if !strings.Contains(string(data), want) {
		t.Errorf("summary missing %q:\n%s", want, data)
	}
}
