// Package heuristics pre-screens findings before any oracle round-trip.
// Cheap path and snippet rules reject the classic false-positive shapes
// (docs, fixtures, vendored code) outright and tag weaker signals as flags
// for the arbitration step. A heuristic can reject a finding on its own but
// never confirm one.
package heuristics

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/internal/findings"
	"github.com/scanio-labs/retriage/pkg/shared/config"
)

// PathClass tells which area of the tree a finding points into.
type PathClass string

const (
	ClassProduction PathClass = "production"
	ClassDocs       PathClass = "docs"
	ClassTest       PathClass = "test"
	ClassVendor     PathClass = "vendor"
)

// Flag names attached to non-terminal verdicts.
const (
	FlagNonProd      = "non_prod"
	FlagFakeSecret   = "fake_secret"
	FlagSQLSignature = "sql_injection_signature"
)

// Flag is a non-terminal signal passed to the oracle as labeled context.
type Flag struct {
	Name string
	Note string
}

// Verdict is the outcome of the heuristic pass over one finding. A terminal
// verdict carries a complete disposition and ends triage for the finding;
// otherwise the flags travel on to arbitration.
type Verdict struct {
	PathClass   PathClass
	Terminal    bool
	Disposition findings.Disposition
	Flags       []Flag
}

// HasFlag reports whether the verdict carries the named flag.
func (v Verdict) HasFlag(name string) bool {
	for _, f := range v.Flags {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Classifier applies the heuristic rule set with configured confidences.
type Classifier struct {
	logger hclog.Logger
	cfg    config.Triage
}

func New(cfg *config.Config, logger hclog.Logger) *Classifier {
	triage := config.DefaultTriageConfig()
	if cfg != nil {
		triage = cfg.Triage
		defaults := config.DefaultTriageConfig()
		if triage.DocsRejectConfidence <= 0 {
			triage.DocsRejectConfidence = defaults.DocsRejectConfidence
		}
		if triage.TestRejectConfidence <= 0 {
			triage.TestRejectConfidence = defaults.TestRejectConfidence
		}
		if triage.VendorRejectConfidence <= 0 {
			triage.VendorRejectConfidence = defaults.VendorRejectConfidence
		}
	}
	return &Classifier{logger: logger, cfg: triage}
}

// Classify runs the ordered rule set over one record. Rules see the
// resolved path when resolution succeeded and the raw hint otherwise.
func (c *Classifier) Classify(rec findings.Record) Verdict {
	path := rec.ResolvedPath
	if path == "" {
		path = rec.FileHint
	}
	lowered := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	rule := strings.ToUpper(strings.TrimSpace(rec.RuleID))

	verdict := Verdict{PathClass: ClassProduction}
	switch {
	case pathHasAny(lowered, docHints) || hasSafeExt(lowered):
		verdict.PathClass = ClassDocs
	case pathHasAny(lowered, testHints):
		verdict.PathClass = ClassTest
	case pathHasAny(lowered, vendorHints):
		verdict.PathClass = ClassVendor
	}

	// Hardcoded-credential and config-leak rules firing outside production
	// code are the classic report false positive: the "secret" sits in a
	// README, a fixture or a vendored package.
	if isConfigLeakRule(rule) && verdict.PathClass != ClassProduction {
		return c.rejectNonProd(verdict, rec, path)
	}

	if verdict.PathClass == ClassDocs && isTextualSnippet(rec.Snippet) {
		return c.terminal(verdict, rec, "Non-code artifact",
			fmt.Sprintf("Rule %s matched prose inside a documentation artifact (%s), not executable code.", rec.RuleID, path),
			c.cfg.DocsRejectConfidence)
	}

	if verdict.PathClass == ClassTest && isSQLRule(rule) && hasTestMarkers(rec.Snippet) {
		return c.terminal(verdict, rec, "Test-only SQL usage",
			fmt.Sprintf("SQL construction reported by %s sits in test code (%s) next to assertions or fixtures.", rec.RuleID, path),
			c.cfg.TestRejectConfidence)
	}

	if verdict.PathClass == ClassVendor {
		return c.terminal(verdict, rec, "Vendored dependency",
			fmt.Sprintf("Finding lands inside vendored third-party code (%s); it is not part of the project sources.", path),
			c.cfg.VendorRejectConfidence)
	}

	if verdict.PathClass != ClassProduction {
		verdict.Flags = append(verdict.Flags, Flag{
			Name: FlagNonProd,
			Note: fmt.Sprintf("The file lives in a non-production area of the tree (%s).", verdict.PathClass),
		})
	}
	if containsFakeSecretMarker(rec.Snippet) || containsFakeSecretMarker(rec.Message) {
		verdict.Flags = append(verdict.Flags, Flag{
			Name: FlagFakeSecret,
			Note: "The snippet carries placeholder-style secret markers (fake-key, dummy, example, placeholder).",
		})
	}
	if isSQLRule(rule) && hasSQLSignature(rec.Snippet) {
		verdict.Flags = append(verdict.Flags, Flag{
			Name: FlagSQLSignature,
			Note: "The snippet shows raw SQL construction: .extra(/.raw( usage or string interpolation into a SELECT.",
		})
	}
	return verdict
}

// rejectNonProd closes a config-leak finding that landed outside production
// code. The comment names the area so the export trail shows why the finding
// was dropped without oracle involvement.
func (c *Classifier) rejectNonProd(v Verdict, rec findings.Record, path string) Verdict {
	switch v.PathClass {
	case ClassTest:
		return c.terminal(v, rec, "Test fixture",
			fmt.Sprintf("Rule %s fired on test material (%s); hardcoded values there are fixtures, not leaks.", rec.RuleID, path),
			c.cfg.TestRejectConfidence)
	case ClassVendor:
		// Credential rules in vendored code reject as confidently as in
		// docs, not at the weaker generic vendor confidence.
		return c.terminal(v, rec, "Vendored dependency",
			fmt.Sprintf("Rule %s fired inside vendored third-party code (%s); the value is not a project secret.", rec.RuleID, path),
			c.cfg.DocsRejectConfidence)
	default:
		return c.terminal(v, rec, "Non-code artifact",
			fmt.Sprintf("Rule %s fired inside documentation or a plain-text artifact (%s); it cannot be exploitable there.", rec.RuleID, path),
			c.cfg.DocsRejectConfidence)
	}
}

// terminal closes the finding as a false positive. Heuristics never close
// in the other direction; confirmation always goes through arbitration.
func (c *Classifier) terminal(v Verdict, rec findings.Record, label, comment string, confidence float64) Verdict {
	v.Terminal = true
	v.Disposition = findings.Disposition{
		Status:            findings.StatusFalsePositive,
		SeverityEffective: findings.SeverityInfo,
		Label:             label,
		Comment:           comment,
		Confidence:        findings.ClampConfidence(confidence),
		Source:            findings.SourceHeuristic,
	}
	c.logger.Debug("heuristic terminal verdict",
		"rule", rec.RuleID, "label", label, "confidence", v.Disposition.Confidence)
	return v
}
