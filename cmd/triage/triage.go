package triage

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scanio-labs/retriage/internal/export"
	"github.com/scanio-labs/retriage/internal/findings"
	"github.com/scanio-labs/retriage/internal/gitmeta"
	"github.com/scanio-labs/retriage/internal/oracle"
	"github.com/scanio-labs/retriage/internal/report"
	"github.com/scanio-labs/retriage/internal/sourceidx"
	"github.com/scanio-labs/retriage/internal/triage"
	"github.com/scanio-labs/retriage/pkg/shared"
	"github.com/scanio-labs/retriage/pkg/shared/config"
	"github.com/scanio-labs/retriage/pkg/shared/errors"
	"github.com/scanio-labs/retriage/pkg/shared/logger"
)

// RunOptionsTriage holds the arguments for the triage command.
type RunOptionsTriage struct {
	Report     string
	Format     string
	Source     string
	Provider   string
	Offline    bool
	Output     string
	Limit      int
	ListModels bool
}

// Global variables for configuration and command arguments
var (
	AppConfig          *config.Config
	triageOptions      RunOptionsTriage
	exampleTriageUsage = `  # Triage a SARIF report against a source tree with the configured oracle
  retriage triage --report scan.sarif --source ./backend

  # Heuristics only, no oracle calls at all
  retriage triage --report scan.sarif --source ./backend --offline

  # Judge with Gemini instead of the configured provider
  retriage triage --report scan.sarif --source ./backend --provider gemini

  # Smoke-run the pipeline on the first 10 findings
  retriage triage --report warnings.csv --source ./backend --limit 10

  # Discover the models a provider is able to serve
  retriage triage --provider gemini --list-models`
)

// TriageCmd represents the triage command.
var TriageCmd = &cobra.Command{
	Use:                   "triage --report/-r PATH --source/-s DIR [--provider/-p NAME] [--offline] [--output/-o DIR] [--limit N]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleTriageUsage,
	Short:                 "Runs the full pipeline: parse, resolve, classify, judge and export",
	RunE:                  runTriageCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runTriageCommand executes the triage command.
func runTriageCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-triage")

	if err := validateTriageArgs(&triageOptions); err != nil {
		logger.Error("invalid triage arguments", "error", err)
		return errors.NewCommandError(fmt.Errorf("invalid triage arguments: %w", err), 1)
	}

	cfg := effectiveConfig(AppConfig, &triageOptions)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if triageOptions.ListModels {
		return listModels(ctx, cfg, logger)
	}

	parsed, err := report.ParseFile(
		triageOptions.Report,
		report.Format(triageOptions.Format),
		report.OptionsFromConfig(cfg),
		logger,
	)
	if err != nil {
		logger.Error("failed to parse report", "error", err)
		return errors.NewCommandError(fmt.Errorf("failed to parse report: %w", err), 2)
	}
	records := findings.NewRecords(parsed)
	if triageOptions.Limit > 0 && triageOptions.Limit < len(records) {
		records = records[:triageOptions.Limit]
	}
	logger.Info("report parsed", "path", triageOptions.Report, "findings", len(records))

	idx, err := sourceidx.New(triageOptions.Source, sourceidx.OptionsFromConfig(cfg), logger)
	if err != nil {
		logger.Error("failed to index source tree", "error", err)
		return errors.NewCommandError(fmt.Errorf("failed to index source tree: %w", err), 2)
	}
	resolved := triage.ResolveAll(idx, records)
	logger.Info("locations resolved", "resolved", resolved, "total", len(records))

	meta, err := gitmeta.Collect(triageOptions.Source, logger)
	if err != nil {
		logger.Debug("repository metadata unavailable", "error", err)
	}

	var provider oracle.Provider
	if !triageOptions.Offline {
		provider, err = oracle.NewProvider(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to initialize oracle provider", "error", err)
			return errors.NewCommandError(fmt.Errorf("failed to initialize oracle provider: %w", err), 2)
		}
		defer closeProvider(provider)
		logger.Info("oracle provider ready", "provider", provider.Name())
	} else {
		logger.Info("offline mode, oracle judgment disabled")
	}

	runner := triage.NewRunner(triage.NewArbitrator(cfg, provider, idx, logger), logger)
	stats := runner.Run(ctx, records, printProgress)

	printSummary(stats)

	res, err := export.New(cfg, meta, logger).WriteAll(records)
	if err != nil {
		logger.Error("failed to write artifacts", "error", err)
		return errors.NewCommandError(fmt.Errorf("failed to write artifacts: %w", err), 2)
	}
	fmt.Printf("\nArtifacts:\n  %s\n  %s\n  %s\n  %s\n",
		res.WarningsCSV, res.AnnotationsCSV, res.FullJSON, res.Summary)

	if stats.Canceled {
		logger.Warn("triage interrupted, partial results exported",
			"disposed", stats.Disposed, "total", stats.Total)
		return errors.NewCommandError(ctx.Err(), 130)
	}

	logger.Info("triage command completed successfully")
	return nil
}

// printProgress reports each disposed finding on stdout.
func printProgress(done, total int, rec findings.Record) {
	location := rec.ResolvedPath
	if location == "" {
		location = rec.FileHint
	}
	fmt.Printf("[%d/%d] %s %s -> %s (%.2f)\n",
		done, total, rec.RuleID, location, rec.Triage.Status, rec.Triage.Confidence)
}

func printSummary(stats triage.Stats) {
	fmt.Printf("\nTriage summary:\n")
	fmt.Printf("  total:           %d\n", stats.Total)
	fmt.Printf("  disposed:        %d\n", stats.Disposed)
	fmt.Printf("  confirmed:       %d\n", stats.Confirmed)
	fmt.Printf("  false positives: %d\n", stats.FalsePositives)
	fmt.Printf("  heuristic only:  %d\n", stats.HeuristicOnly)
	fmt.Printf("  oracle used:     %d\n", stats.OracleUsed)
	if stats.OracleFailures > 0 {
		fmt.Printf("  oracle failures: %d (fallback dispositions, marked for follow-up)\n", stats.OracleFailures)
	}
}

// listModels prints the models the configured provider can serve. Providers
// without a discovery API get a static note instead of an error.
func listModels(ctx context.Context, cfg *config.Config, logger hclog.Logger) error {
	provider, err := oracle.NewProvider(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize oracle provider", "error", err)
		return errors.NewCommandError(fmt.Errorf("failed to initialize oracle provider: %w", err), 2)
	}
	defer closeProvider(provider)

	lister, ok := provider.(oracle.ModelLister)
	if !ok {
		fmt.Printf("provider %q does not support model discovery; consult the provider documentation\n", provider.Name())
		return nil
	}

	models, err := lister.ListModels(ctx)
	if err != nil {
		logger.Error("failed to list models", "error", err)
		return errors.NewCommandError(fmt.Errorf("failed to list models: %w", err), 2)
	}
	for _, model := range models {
		fmt.Println(model)
	}
	return nil
}

func closeProvider(provider oracle.Provider) {
	if closer, ok := provider.(io.Closer); ok {
		closer.Close()
	}
}

// effectiveConfig overlays command flags onto the loaded configuration without
// mutating the global config.
func effectiveConfig(base *config.Config, opts *RunOptionsTriage) *config.Config {
	cfg := *base
	if opts.Output != "" {
		cfg.Export.OutputFolder = opts.Output
	}
	if opts.Provider != "" {
		cfg.Oracle.Provider = opts.Provider
	}
	return &cfg
}

// Initialize flags for the triage command.
func init() {
	TriageCmd.Flags().StringVarP(&triageOptions.Report, "report", "r", "", "Path to the scanner report to triage.")
	TriageCmd.Flags().StringVarP(&triageOptions.Format, "format", "f", "", "Report format: sarif, csv, pdf or pdftext. Detected from the file extension when omitted.")
	TriageCmd.Flags().StringVarP(&triageOptions.Source, "source", "s", "", "Path to the source tree the findings refer to.")
	TriageCmd.Flags().StringVarP(&triageOptions.Provider, "provider", "p", "", "Oracle provider to judge with (yandex, gemini, openai or plugin:NAME).")
	TriageCmd.Flags().BoolVar(&triageOptions.Offline, "offline", false, "Skip oracle judgment entirely and dispose findings with heuristics only.")
	TriageCmd.Flags().StringVarP(&triageOptions.Output, "output", "o", "", "Folder where the result artifacts will be saved.")
	TriageCmd.Flags().IntVarP(&triageOptions.Limit, "limit", "l", 0, "Triage only the first N findings of the report.")
	TriageCmd.Flags().BoolVar(&triageOptions.ListModels, "list-models", false, "Print the models the provider can serve and exit.")
	TriageCmd.Flags().BoolP("help", "h", false, "Show help for the triage command.")
}
