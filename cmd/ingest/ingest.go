package ingest

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scanio-labs/retriage/internal/export"
	"github.com/scanio-labs/retriage/internal/findings"
	"github.com/scanio-labs/retriage/internal/report"
	"github.com/scanio-labs/retriage/internal/sourceidx"
	"github.com/scanio-labs/retriage/internal/triage"
	"github.com/scanio-labs/retriage/pkg/shared"
	"github.com/scanio-labs/retriage/pkg/shared/config"
	"github.com/scanio-labs/retriage/pkg/shared/errors"
	"github.com/scanio-labs/retriage/pkg/shared/logger"
)

// RunOptionsIngest holds the arguments for the ingest command.
type RunOptionsIngest struct {
	Report string
	Format string
	Source string
	Output string
}

// Global variables for configuration and command arguments
var (
	AppConfig          *config.Config
	ingestOptions      RunOptionsIngest
	exampleIngestUsage = `  # Normalize a SARIF report
  retriage ingest --report scan.sarif

  # Normalize a CSV report and pin findings to a source tree
  retriage ingest --report warnings.csv --source ./backend

  # Force the parser for an unusual extension and pick the output folder
  retriage ingest --report export.data --format pdftext --output ./results`
)

// IngestCmd represents the ingest command.
var IngestCmd = &cobra.Command{
	Use:                   "ingest --report/-r PATH [--format/-f FORMAT] [--source/-s DIR] [--output/-o DIR]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleIngestUsage,
	Short:                 "Parses a scanner report into normalized findings and writes the snapshot",
	RunE:                  runIngestCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runIngestCommand executes the ingest command.
func runIngestCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-ingest")

	if err := validateIngestArgs(&ingestOptions); err != nil {
		logger.Error("invalid ingest arguments", "error", err)
		return errors.NewCommandError(fmt.Errorf("invalid ingest arguments: %w", err), 1)
	}

	parsed, err := report.ParseFile(
		ingestOptions.Report,
		report.Format(ingestOptions.Format),
		report.OptionsFromConfig(AppConfig),
		logger,
	)
	if err != nil {
		logger.Error("failed to parse report", "error", err)
		return errors.NewCommandError(fmt.Errorf("failed to parse report: %w", err), 2)
	}
	records := findings.NewRecords(parsed)
	logger.Info("report parsed", "path", ingestOptions.Report, "findings", len(records))

	if ingestOptions.Source != "" {
		idx, err := sourceidx.New(ingestOptions.Source, sourceidx.OptionsFromConfig(AppConfig), logger)
		if err != nil {
			logger.Error("failed to index source tree", "error", err)
			return errors.NewCommandError(fmt.Errorf("failed to index source tree: %w", err), 2)
		}
		resolved := triage.ResolveAll(idx, records)
		logger.Info("locations resolved", "resolved", resolved, "total", len(records))
	}

	cfg := exportConfig(AppConfig, ingestOptions.Output)
	res, err := export.New(cfg, nil, logger).WriteFindings(records)
	if err != nil {
		logger.Error("failed to write snapshot", "error", err)
		return errors.NewCommandError(fmt.Errorf("failed to write snapshot: %w", err), 2)
	}

	logger.Info("ingest command completed successfully",
		"findings", len(records),
		"warnings_csv", res.WarningsCSV,
		"report_json", res.FullJSON)
	return nil
}

// exportConfig derives the effective export configuration, letting the output
// flag override the configured folder without mutating the global config.
func exportConfig(base *config.Config, output string) *config.Config {
	if output == "" {
		return base
	}
	cfg := *base
	cfg.Export.OutputFolder = output
	return &cfg
}

// Initialize flags for the ingest command.
func init() {
	IngestCmd.Flags().StringVarP(&ingestOptions.Report, "report", "r", "", "Path to the scanner report to normalize.")
	IngestCmd.Flags().StringVarP(&ingestOptions.Format, "format", "f", "", "Report format: sarif, csv, pdf or pdftext. Detected from the file extension when omitted.")
	IngestCmd.Flags().StringVarP(&ingestOptions.Source, "source", "s", "", "Path to the source tree to pin finding locations against.")
	IngestCmd.Flags().StringVarP(&ingestOptions.Output, "output", "o", "", "Folder where the snapshot artifacts will be saved.")
	IngestCmd.Flags().BoolP("help", "h", false, "Show help for the ingest command.")
}
