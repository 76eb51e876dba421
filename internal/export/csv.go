package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/scanio-labs/retriage/internal/findings"
)

// warningsBaseColumns is the fixed leading column set of the findings CSV.
// Columns the source report carried beyond these are appended in sorted
// order, so nothing from the original rows is lost.
var warningsBaseColumns = []string{"rule_id", "severity", "file", "line", "message", "snippet", "status"}

var annotationColumns = []string{"rule_id", "severity", "file", "line", "message", "status", "label", "comment", "confidence"}

func (w *Writer) writeWarningsCSV(path string, records []findings.Record) error {
	file, cw, err := w.openCSV(path)
	if err != nil {
		return err
	}
	defer file.Close()

	extras := extraColumns(records)
	header := append(append([]string{}, warningsBaseColumns...), extras...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		cells := []string{
			rec.RuleID,
			string(rec.SeverityReported),
			displayFile(rec),
			lineCell(rec.StartLine),
			rec.Message,
			rec.Snippet,
			string(rec.Triage.Status),
		}
		for _, col := range extras {
			cells = append(cells, rawCell(rec.Raw[col]))
		}
		if err := writeRow(cw, cells); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (w *Writer) writeAnnotationsCSV(path string, records []findings.Record) error {
	file, cw, err := w.openCSV(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := cw.Write(append([]string{}, annotationColumns...)); err != nil {
		return err
	}

	for _, rec := range records {
		cells := []string{
			rec.RuleID,
			string(rec.Triage.SeverityEffective),
			displayFile(rec),
			lineCell(rec.StartLine),
			rec.Message,
			string(rec.Triage.Status),
			rec.Triage.Label,
			rec.Triage.Comment,
			strconv.FormatFloat(rec.Triage.Confidence, 'f', -1, 64),
		}
		if err := writeRow(cw, cells); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// openCSV creates the file, emits the BOM when configured and wires the
// delimiter. The caller owns closing the returned file.
func (w *Writer) openCSV(path string) (*os.File, *csv.Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed creating file: %w", err)
	}
	if w.bom {
		if _, err := file.WriteString("\ufeff"); err != nil {
			file.Close()
			return nil, nil, fmt.Errorf("failed writing BOM: %w", err)
		}
	}
	cw := csv.NewWriter(file)
	cw.Comma = w.delimiter
	return file, cw, nil
}

// writeRow flattens embedded line breaks before writing, keeping every record
// on a single physical CSV line.
func writeRow(cw *csv.Writer, cells []string) error {
	for i := range cells {
		cells[i] = flatten(cells[i])
	}
	return cw.Write(cells)
}

var newlineFlattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func flatten(s string) string {
	return newlineFlattener.Replace(s)
}

// extraColumns collects the raw report columns not already covered by the
// fixed set, sorted for a stable header.
func extraColumns(records []findings.Record) []string {
	base := make(map[string]bool, len(warningsBaseColumns))
	for _, col := range warningsBaseColumns {
		base[col] = true
	}

	seen := make(map[string]bool)
	var extras []string
	for _, rec := range records {
		for key := range rec.Raw {
			key = strings.TrimSpace(key)
			if key == "" || base[strings.ToLower(key)] || seen[key] {
				continue
			}
			seen[key] = true
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	return extras
}

// rawCell renders a raw report value for CSV: scalars plainly, composites as
// compact JSON.
func rawCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(data)
	}
}

// displayFile prefers the resolved location over the report's own hint.
func displayFile(rec findings.Record) string {
	if rec.ResolvedPath != "" {
		return rec.ResolvedPath
	}
	return rec.FileHint
}

func lineCell(line int) string {
	if line <= 0 {
		return ""
	}
	return strconv.Itoa(line)
}
