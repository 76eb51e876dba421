// Package triage arbitrates findings into final dispositions: cheap
// heuristics first, oracle judgment where heuristics cannot close, and a
// reconciliation policy that keeps path evidence above model verdicts.
package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/internal/findings"
	"github.com/scanio-labs/retriage/internal/heuristics"
	"github.com/scanio-labs/retriage/internal/oracle"
	"github.com/scanio-labs/retriage/internal/sourceidx"
	"github.com/scanio-labs/retriage/pkg/shared/config"
	"github.com/scanio-labs/retriage/pkg/shared/files"
)

// Result couples a finished disposition with the bookkeeping the batch
// runner folds into its stats.
type Result struct {
	Disposition findings.Disposition
	OracleUsed  bool
	// OracleFailed marks transport or parse failures where the heuristic
	// fallback was substituted.
	OracleFailed bool
	// FollowUp marks records that need manual review because the oracle
	// produced nothing usable.
	FollowUp bool
}

// Arbitrator runs the per-finding decision flow. provider may be nil for
// offline runs; index may be nil when no source root was indexed, which
// only costs the oracle its file-content section.
type Arbitrator struct {
	logger     hclog.Logger
	cfg        config.Triage
	classifier *heuristics.Classifier
	provider   oracle.Provider
	index      *sourceidx.Index
}

func NewArbitrator(cfg *config.Config, provider oracle.Provider, index *sourceidx.Index, logger hclog.Logger) *Arbitrator {
	triage := config.DefaultTriageConfig()
	if cfg != nil {
		triage = cfg.Triage
		defaults := config.DefaultTriageConfig()
		if triage.FallbackMaxConfidence <= 0 {
			triage.FallbackMaxConfidence = defaults.FallbackMaxConfidence
		}
		if triage.OverrideMinConfidence <= 0 {
			triage.OverrideMinConfidence = defaults.OverrideMinConfidence
		}
		if triage.ContextMaxChars <= 0 {
			triage.ContextMaxChars = defaults.ContextMaxChars
		}
	}
	return &Arbitrator{
		logger:     logger,
		cfg:        triage,
		classifier: heuristics.New(cfg, logger),
		provider:   provider,
		index:      index,
	}
}

// Decide produces exactly one disposition for the record. The returned
// error is non-nil only when ctx was canceled mid-decision; in that case
// nothing was decided and the record must keep its current disposition.
func (a *Arbitrator) Decide(ctx context.Context, rec findings.Record) (Result, error) {
	verdict := a.classifier.Classify(rec)
	if verdict.Terminal {
		return Result{Disposition: verdict.Disposition}, nil
	}

	if a.provider == nil {
		d := a.fallback(rec, "Heuristic triage only: oracle judgment disabled.")
		return Result{Disposition: d}, nil
	}

	prompt := oracle.BuildPrompt(a.request(rec, verdict))
	raw, err := a.provider.Judge(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		a.logger.Warn("oracle judgment failed", "rule", rec.RuleID, "error", err)
		return Result{
			Disposition:  a.fallback(rec, "No structured result from LLM."),
			OracleUsed:   true,
			OracleFailed: true,
			FollowUp:     true,
		}, nil
	}

	parsed, err := oracle.ParseVerdict(raw)
	if err != nil {
		a.logger.Warn("oracle response unusable", "rule", rec.RuleID, "error", err)
		return Result{
			Disposition:  a.fallback(rec, "No structured result from LLM."),
			OracleUsed:   true,
			OracleFailed: true,
			FollowUp:     true,
		}, nil
	}

	d := a.normalize(parsed, rec)

	// Path evidence outranks the model: a confirmed verdict on a
	// non-production file is overturned, with the rationale kept for the
	// audit trail.
	if verdict.HasFlag(heuristics.FlagNonProd) && d.Status == findings.StatusConfirmed {
		d = a.override(d)
	}

	return Result{Disposition: d, OracleUsed: true}, nil
}

// request assembles the oracle prompt input for one record.
func (a *Arbitrator) request(rec findings.Record, verdict heuristics.Verdict) oracle.Request {
	hints := make([]string, 0, len(verdict.Flags))
	for _, f := range verdict.Flags {
		hints = append(hints, f.Note)
	}

	file := rec.ResolvedPath
	if file == "" {
		file = rec.FileHint
	}

	return oracle.Request{
		Rule:         rec.RuleID,
		Severity:     string(rec.SeverityReported),
		File:         file,
		Line:         rec.StartLine,
		Message:      rec.Message,
		Snippet:      rec.Snippet,
		Context:      a.context(rec),
		ContextLimit: a.cfg.ContextMaxChars,
		Hints:        hints,
	}
}

// context reads the resolved file's content for the prompt. Failure to read
// is not an error: the oracle just sees less.
func (a *Arbitrator) context(rec findings.Record) string {
	if a.index == nil || rec.ResolvedPath == "" {
		return ""
	}
	content, err := files.ReadTextFile(a.index.AbsPath(rec.ResolvedPath))
	if err != nil {
		a.logger.Debug("context read failed", "path", rec.ResolvedPath, "error", err)
		return ""
	}
	return content
}

// normalize turns a raw oracle verdict into a valid disposition: enum
// fields are coerced, confidence lands in [0,1] (percent scales divided
// down), label and comment are never left empty.
func (a *Arbitrator) normalize(v oracle.Verdict, rec findings.Record) findings.Disposition {
	label := strings.TrimSpace(v.Label)
	if label == "" {
		label = rec.RuleID
	}
	comment := strings.TrimSpace(v.Comment)
	if comment == "" {
		comment = fmt.Sprintf("No explanation provided for %s at %s:%d.", rec.RuleID, rec.FileHint, rec.StartLine)
	}
	return findings.Disposition{
		Status:            findings.NormalizeStatus(v.Status),
		SeverityEffective: findings.NormalizeSeverity(v.Severity),
		Label:             label,
		Comment:           comment,
		Confidence:        findings.ClampConfidence(v.Confidence),
		Source:            findings.SourceOracle,
	}
}

// override flips a confirmed oracle verdict on a non-production path to a
// false positive. The oracle's rationale stays in the comment.
func (a *Arbitrator) override(d findings.Disposition) findings.Disposition {
	d.Status = findings.StatusFalsePositive
	d.SeverityEffective = findings.SeverityInfo
	if d.Confidence < a.cfg.OverrideMinConfidence {
		d.Confidence = a.cfg.OverrideMinConfidence
	}
	d.Comment = d.Comment + " [Overridden to false positive: the file sits outside production code, which outweighs the confirmed verdict.]"
	d.Source = findings.SourceOracleOverridden
	return d
}

// fallback is the heuristic stand-in disposition used when the oracle is
// unavailable or unusable. Confidence never exceeds the configured cap.
func (a *Arbitrator) fallback(rec findings.Record, comment string) findings.Disposition {
	severity := rec.SeverityReported
	if severity == "" {
		severity = findings.SeverityInfo
	}
	return findings.Disposition{
		Status:            findings.StatusFalsePositive,
		SeverityEffective: severity,
		Label:             rec.RuleID,
		Comment:           comment,
		Confidence:        a.cfg.FallbackMaxConfidence,
		Source:            findings.SourceHeuristic,
	}
}
