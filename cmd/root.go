package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scanio-labs/retriage/cmd/ingest"
	"github.com/scanio-labs/retriage/cmd/triage"
	"github.com/scanio-labs/retriage/cmd/version"
	"github.com/scanio-labs/retriage/pkg/shared/config"
	"github.com/scanio-labs/retriage/pkg/shared/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "retriage [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Retriage re-judges static analysis findings with heuristics and an LLM oracle.",
		Long: `Retriage ingests static analysis reports (SARIF, CSV, PDF), pins every finding
to the real source tree and attaches an explained verdict to each one: confirmed
or false positive, with a label, a comment and a confidence. Path heuristics
decide the obvious cases; an oracle model judges the rest, and path evidence can
overrule a confirmed verdict on non-production code.
`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(ingest.IngestCmd)
	rootCmd.AddCommand(triage.TriageCmd)
}

func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		if cmdErr, ok := err.(*errors.CommandError); ok {
			return cmdErr.ExitCode
		}
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize config: %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	version.Init(AppConfig)
	ingest.Init(AppConfig)
	triage.Init(AppConfig)
}
