package validation

import (
	"testing"

	"github.com/scanio-labs/retriage/pkg/shared"
)

func TestValidateJudgeArgs_EmptyPrompt(t *testing.T) {
	req := &shared.OracleJudgeRequest{Model: "gpt-4o-mini"}

	if err := ValidateJudgeArgs(req); err == nil || err.Error() != "prompt is required" {
		t.Fatalf("expected prompt error, got %v", err)
	}
}

func TestValidateJudgeArgs_BlankPrompt(t *testing.T) {
	req := &shared.OracleJudgeRequest{Prompt: "   \n\t "}

	if err := ValidateJudgeArgs(req); err == nil {
		t.Fatalf("expected prompt error for whitespace-only prompt")
	}
}

func TestValidateJudgeArgs_Valid(t *testing.T) {
	req := &shared.OracleJudgeRequest{Prompt: "Rule: B608\nReturn strictly JSON as specified above."}

	if err := ValidateJudgeArgs(req); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}
