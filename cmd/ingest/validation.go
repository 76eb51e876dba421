package ingest

import (
	"fmt"

	"github.com/scanio-labs/retriage/internal/report"
	"github.com/scanio-labs/retriage/pkg/shared/files"
)

// validateIngestArgs validates the arguments provided to the ingest command.
func validateIngestArgs(opts *RunOptionsIngest) error {
	if opts.Report == "" {
		return fmt.Errorf("the 'report' flag must be specified")
	}
	if err := files.ValidatePath(opts.Report); err != nil {
		return fmt.Errorf("invalid report path: %w", err)
	}

	if opts.Format != "" && !knownFormat(opts.Format) {
		return fmt.Errorf("unsupported report format %q, expected one of %v", opts.Format, report.Formats)
	}

	if opts.Source != "" {
		if err := files.ValidateFolderPath(opts.Source); err != nil {
			return fmt.Errorf("invalid source folder: %w", err)
		}
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
