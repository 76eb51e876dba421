package findings

import "strings"

// NormalizeSeverity maps free-form severity text onto the shared scale.
// Anything unrecognized lands on info, the least alarming bucket, so a
// malformed verdict can never escalate a finding.
func NormalizeSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityMedium:
		return SeverityMedium
	case SeverityLow:
		return SeverityLow
	case SeverityInfo:
		return SeverityInfo
	default:
		return SeverityInfo
	}
}

// NormalizeStatus maps free-form status text onto a triage status. Unknown
// values land on false_positive: a verdict that cannot be read is treated as
// a rejection, never as a confirmation.
func NormalizeStatus(s string) Status {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	switch normalized {
	case string(StatusConfirmed):
		return StatusConfirmed
	case string(StatusFalsePositive), "falsepositive", "fp":
		return StatusFalsePositive
	case string(StatusUnresolved):
		return StatusUnresolved
	default:
		return StatusFalsePositive
	}
}

// ClampConfidence squeezes a reported confidence into [0, 1]. Values above 1
// are read as percentages first; a value of exactly 1 is taken as already
// normalized.
func ClampConfidence(c float64) float64 {
	if c > 1 {
		c = c / 100
	}
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}
