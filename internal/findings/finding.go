package findings

import "github.com/google/uuid"

// Sentinels used when a report record carries no usable value. Parsers fill
// them in so downstream code never has to branch on empty identity fields.
const (
	UnknownRule = "Unknown Rule"
	UnknownFile = "Unknown"
)

// Severity is the shared scale every report format is mapped onto.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists the known severities from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityMedium, SeverityLow, SeverityInfo}

// Status is the triage verdict for a finding.
type Status string

const (
	StatusUnresolved    Status = "unresolved"
	StatusConfirmed     Status = "confirmed"
	StatusFalsePositive Status = "false_positive"
)

// Source records which side of the pipeline produced a disposition.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceOracle    Source = "oracle"
	// SourceOracleOverridden marks oracle verdicts that the path heuristics
	// overturned after the fact.
	SourceOracleOverridden Source = "oracle_overridden_by_heuristic"
)

// Finding is one normalized report record. It is immutable after ingestion:
// triage writes its verdict into the record's disposition, never back into
// the finding.
//
// Lines and columns are 1-based; zero means the report did not carry the
// value. FileHint is whatever location string the report offered, which may
// be relative, mangled or plain wrong. Resolution against a source tree
// happens later and never modifies the hint.
type Finding struct {
	ID               string   `json:"id"`
	RuleID           string   `json:"rule_id"`
	Title            string   `json:"title,omitempty"`
	SeverityReported Severity `json:"severity_reported"`

	FileHint  string `json:"file_hint"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	StartCol  int    `json:"start_col,omitempty"`
	EndCol    int    `json:"end_col,omitempty"`

	Message string `json:"message"`
	Snippet string `json:"snippet,omitempty"`

	// Raw preserves the original record as parsed, for export and debugging.
	Raw map[string]interface{} `json:"raw,omitempty"`
}

// Disposition is the triage verdict attached to a finding. Verdicts are
// replaced wholesale: a re-triage builds a fresh disposition instead of
// patching fields.
type Disposition struct {
	Status            Status   `json:"status"`
	SeverityEffective Severity `json:"severity_effective"`
	Label             string   `json:"label"`
	Comment           string   `json:"comment"`
	Confidence        float64  `json:"confidence"`
	Source            Source   `json:"source,omitempty"`
}

// Record couples a finding with its resolved source location and current
// disposition. The finding part never changes after ingestion.
type Record struct {
	Finding
	ResolvedPath string      `json:"resolved_path,omitempty"`
	Triage       Disposition `json:"triage"`
}

// NewRecord wraps a freshly parsed finding, assigns it an identifier and the
// initial unresolved disposition.
func NewRecord(f Finding) Record {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return Record{
		Finding: f,
		Triage: Disposition{
			Status:            StatusUnresolved,
			SeverityEffective: f.SeverityReported,
			Label:             f.RuleID,
			Comment:           "awaiting triage",
		},
	}
}

// NewRecords wraps a batch of findings preserving their order.
func NewRecords(fs []Finding) []Record {
	records := make([]Record, 0, len(fs))
	for _, f := range fs {
		records = append(records, NewRecord(f))
	}
	return records
}
