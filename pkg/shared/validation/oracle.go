package validation

import (
	"fmt"
	"strings"

	"github.com/scanio-labs/retriage/pkg/shared"
)

// ValidateJudgeArgs checks the necessary fields in OracleJudgeRequest and returns errors if they are not set.
func ValidateJudgeArgs(args *shared.OracleJudgeRequest) error {
	if strings.TrimSpace(args.Prompt) == "" {
		return fmt.Errorf("prompt is required")
	}
	return nil
}
