// Package report turns scanner output in several formats (SARIF, CSV,
// PDF and PDF-extracted text) into the normalized finding model. Parsers
// are lenient about broken records but strict about unreadable inputs.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/internal/findings"
	"github.com/scanio-labs/retriage/pkg/shared/config"
)

type Format string

const (
	FormatSARIF   Format = "sarif"
	FormatCSV     Format = "csv"
	FormatPDF     Format = "pdf"
	FormatPDFText Format = "pdftext"
)

// Formats lists the supported report formats in display order.
var Formats = []Format{FormatSARIF, FormatCSV, FormatPDF, FormatPDFText}

// Parser reads one report file and extracts findings from it.
type Parser interface {
	Format() Format
	Parse(inputPath string) ([]findings.Finding, error)
}

// Options carries the tunables shared by the text-oriented parsers.
type Options struct {
	// ScanWindow bounds how many lines after a location anchor the PDF text
	// parser examines while harvesting a code snippet.
	ScanWindow int
	// SnippetMaxLines caps the size of a harvested snippet.
	SnippetMaxLines int
}

// OptionsFromConfig projects the triage tunables into parser options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ScanWindow:      cfg.Triage.PDFScanWindow,
		SnippetMaxLines: cfg.Triage.SnippetMaxLines,
	}
}

func (o Options) withDefaults() Options {
	defaults := config.DefaultTriageConfig()
	if o.ScanWindow <= 0 {
		o.ScanWindow = defaults.PDFScanWindow
	}
	if o.SnippetMaxLines <= 0 {
		o.SnippetMaxLines = defaults.SnippetMaxLines
	}
	return o
}

// New returns the parser for the given format.
func New(format Format, opts Options, logger hclog.Logger) (Parser, error) {
	switch format {
	case FormatSARIF:
		return &sarifParser{logger: logger}, nil
	case FormatCSV:
		return &csvParser{logger: logger}, nil
	case FormatPDF:
		return &pdfFileParser{logger: logger, text: newPDFTextParser(opts, logger)}, nil
	case FormatPDFText:
		return newPDFTextParser(opts, logger), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q, expected one of %v", format, Formats)
	}
}

// DetectFormat guesses the report format from the file extension.
func DetectFormat(inputPath string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(inputPath)) {
	case ".sarif", ".json":
		return FormatSARIF, true
	case ".csv", ".tsv":
		return FormatCSV, true
	case ".pdf":
		return FormatPDF, true
	case ".txt", ".log", ".text":
		return FormatPDFText, true
	default:
		return "", false
	}
}

// ParseFile detects the format of inputPath (unless format is non-empty)
// and runs the matching parser over it.
func ParseFile(inputPath string, format Format, opts Options, logger hclog.Logger) ([]findings.Finding, error) {
	if format == "" {
		detected, ok := DetectFormat(inputPath)
		if !ok {
			return nil, fmt.Errorf("cannot detect report format of %q, pass the format explicitly", inputPath)
		}
		format = detected
	}
	parser, err := New(format, opts, logger)
	if err != nil {
		return nil, err
	}
	return parser.Parse(inputPath)
}
