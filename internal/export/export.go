// Package export writes triage results as reviewable artifacts: a findings
// CSV, an annotations CSV, a full JSON dump and a Markdown summary. The CSV
// writers default to a semicolon delimiter and a UTF-8 BOM so spreadsheet
// tools in RU locales open them without an import wizard.
package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/internal/findings"
	"github.com/scanio-labs/retriage/internal/gitmeta"
	"github.com/scanio-labs/retriage/pkg/shared"
	"github.com/scanio-labs/retriage/pkg/shared/config"
	"github.com/scanio-labs/retriage/pkg/shared/files"
)

// timestampLayout keeps artifact names ASCII-only, which stays safe across
// Windows and locale-sensitive filesystems.
const timestampLayout = "2006-01-02_15-04-05"

const writerParallelism = 4

// Result lists the paths of the written artifacts.
type Result struct {
	WarningsCSV    string
	AnnotationsCSV string
	FullJSON       string
	Summary        string
}

// Writer produces the artifact set for one triage run.
type Writer struct {
	logger    hclog.Logger
	folder    string
	delimiter rune
	bom       bool
	stable    bool
	meta      *gitmeta.Metadata
}

// New builds a writer from the export configuration. meta may be nil; the
// summary simply carries no permalinks then.
func New(cfg *config.Config, meta *gitmeta.Metadata, logger hclog.Logger) *Writer {
	if cfg == nil {
		cfg = &config.Config{}
	}
	defaults := config.DefaultExportConfig()

	delimiter := firstRune(defaults.CSVDelimiter, ';')
	if cfg.Export.CSVDelimiter != "" {
		delimiter = firstRune(cfg.Export.CSVDelimiter, delimiter)
	}

	bom := defaults.UTF8BOM != nil && *defaults.UTF8BOM
	if cfg.Export.UTF8BOM != nil {
		bom = *cfg.Export.UTF8BOM
	}

	folder := config.GetRetriageResultsHome(cfg)
	if folder == "" {
		folder = "results"
	}

	return &Writer{
		logger:    logger,
		folder:    folder,
		delimiter: delimiter,
		bom:       bom,
		stable:    config.IsCI(cfg),
		meta:      meta,
	}
}

func firstRune(s string, fallback rune) rune {
	for _, r := range s {
		return r
	}
	return fallback
}

type artifactJob struct {
	kind  string
	path  string
	write func(path string) error
}

// WriteAll writes the four artifacts into the output folder. All artifacts of
// one run share a single timestamp; in CI mode the names carry no timestamp
// at all, so pipeline steps can reference them statically.
func (w *Writer) WriteAll(records []findings.Record) (Result, error) {
	now := time.Now()
	res := Result{
		WarningsCSV:    filepath.Join(w.folder, w.artifactName("warnings", ".csv", now)),
		AnnotationsCSV: filepath.Join(w.folder, w.artifactName("ai_annotations", ".csv", now)),
		FullJSON:       filepath.Join(w.folder, w.artifactName("report_full", ".json", now)),
		Summary:        filepath.Join(w.folder, w.artifactName("summary", ".md", now)),
	}

	jobs := []artifactJob{
		{kind: "findings CSV", path: res.WarningsCSV, write: func(path string) error { return w.writeWarningsCSV(path, records) }},
		{kind: "annotations CSV", path: res.AnnotationsCSV, write: func(path string) error { return w.writeAnnotationsCSV(path, records) }},
		{kind: "full JSON report", path: res.FullJSON, write: func(path string) error { return w.writeFullJSON(path, records) }},
		{kind: "Markdown summary", path: res.Summary, write: func(path string) error { return w.writeSummaryMarkdown(path, records) }},
	}
	if err := w.writeArtifacts(jobs); err != nil {
		return Result{}, err
	}
	return res, nil
}

// WriteFindings writes only the findings-shaped artifacts, for snapshots taken
// before any triage has run.
func (w *Writer) WriteFindings(records []findings.Record) (Result, error) {
	now := time.Now()
	res := Result{
		WarningsCSV: filepath.Join(w.folder, w.artifactName("warnings", ".csv", now)),
		FullJSON:    filepath.Join(w.folder, w.artifactName("report_full", ".json", now)),
	}

	jobs := []artifactJob{
		{kind: "findings CSV", path: res.WarningsCSV, write: func(path string) error { return w.writeWarningsCSV(path, records) }},
		{kind: "full JSON report", path: res.FullJSON, write: func(path string) error { return w.writeFullJSON(path, records) }},
	}
	if err := w.writeArtifacts(jobs); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (w *Writer) writeArtifacts(jobs []artifactJob) error {
	if err := files.CreateFolderIfNotExists(w.folder); err != nil {
		return fmt.Errorf("failed to prepare output folder: %w", err)
	}

	values := make([]interface{}, len(jobs))
	for i := range jobs {
		values[i] = jobs[i]
	}

	var mu sync.Mutex
	var firstErr error
	shared.ForEveryStringWithBoundedGoroutines(writerParallelism, values, func(i int, value interface{}) {
		job := value.(artifactJob)
		if err := job.write(job.path); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to write %s: %w", job.kind, err)
			}
			mu.Unlock()
			return
		}
		w.logger.Info("artifact saved", "path", job.path)
	})
	return firstErr
}

func (w *Writer) artifactName(base, ext string, t time.Time) string {
	if w.stable {
		return base + ext
	}
	return fmt.Sprintf("%s_%s%s", base, t.Format(timestampLayout), ext)
}

// writeFullJSON dumps the records with their dispositions embedded. An empty
// batch still produces a valid empty list.
func (w *Writer) writeFullJSON(path string, records []findings.Record) error {
	if records == nil {
		records = []findings.Record{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("error marshaling records: %w", err)
	}
	return files.WriteJsonFile(path, data)
}
