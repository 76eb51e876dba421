package triage

import (
	"fmt"

	"github.com/scanio-labs/retriage/internal/report"
	"github.com/scanio-labs/retriage/pkg/shared/files"
)

// validateTriageArgs validates the arguments provided to the triage command.
func validateTriageArgs(opts *RunOptionsTriage) error {
	if opts.Offline && opts.Provider != "" {
		return fmt.Errorf("the 'offline' and 'provider' flags are mutually exclusive")
	}
	if opts.Offline && opts.ListModels {
		return fmt.Errorf("the 'offline' and 'list-models' flags are mutually exclusive")
	}
	if opts.Limit < 0 {
		return fmt.Errorf("the 'limit' flag must not be negative")
	}

	if opts.ListModels {
		return nil
	}

	if opts.Report == "" {
		return fmt.Errorf("the 'report' flag must be specified")
	}
	if err := files.ValidatePath(opts.Report); err != nil {
		return fmt.Errorf("invalid report path: %w", err)
	}

	if opts.Format != "" && !knownFormat(opts.Format) {
		return fmt.Errorf("unsupported report format %q, expected one of %v", opts.Format, report.Formats)
	}

	if opts.Source == "" {
		return fmt.Errorf("the 'source' flag must be specified")
	}
	if err := files.ValidateFolderPath(opts.Source); err != nil {
		return fmt.Errorf("invalid source folder: %w", err)
	}
	return nil
}

func knownFormat(format string) bool {
	for _, f := range report.Formats {
		if report.Format(format) == f {
			return true
		}
	}
	return false
}
