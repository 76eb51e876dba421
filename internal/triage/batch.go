package triage

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/internal/findings"
	"github.com/scanio-labs/retriage/internal/sourceidx"
)

// Progress is invoked after each finding is disposed, never before, so the
// reported count always corresponds to a completed disposition.
type Progress func(done, total int, rec findings.Record)

// Stats summarizes a batch run.
type Stats struct {
	Total          int
	Disposed       int
	Confirmed      int
	FalsePositives int
	HeuristicOnly  int
	OracleUsed     int
	OracleFailures int
	FollowUps      int
	Canceled       bool
}

// Runner processes findings sequentially. The oracle call is the only slow
// operation in the pipeline; a single worker keeps provider rate limits
// simple and the output order stable.
type Runner struct {
	logger hclog.Logger
	arb    *Arbitrator
}

func NewRunner(arb *Arbitrator, logger hclog.Logger) *Runner {
	return &Runner{logger: logger, arb: arb}
}

// Run disposes every record in place. Cancellation is honored between
// findings: the finding in flight either completes or stays untouched, and
// everything disposed before the cancellation survives.
func (r *Runner) Run(ctx context.Context, records []findings.Record, progress Progress) Stats {
	stats := Stats{Total: len(records)}

	for i := range records {
		if ctx.Err() != nil {
			stats.Canceled = true
			break
		}

		res, err := r.arb.Decide(ctx, records[i])
		if err != nil {
			// Canceled mid-decision; the record keeps its unresolved
			// disposition.
			stats.Canceled = true
			break
		}

		records[i].Triage = res.Disposition
		stats.Disposed++
		switch res.Disposition.Status {
		case findings.StatusConfirmed:
			stats.Confirmed++
		case findings.StatusFalsePositive:
			stats.FalsePositives++
		}
		if res.OracleUsed {
			stats.OracleUsed++
		} else {
			stats.HeuristicOnly++
		}
		if res.OracleFailed {
			stats.OracleFailures++
		}
		if res.FollowUp {
			stats.FollowUps++
		}

		if progress != nil {
			progress(stats.Disposed, len(records), records[i])
		}
	}

	r.logger.Info("triage finished",
		"total", stats.Total,
		"disposed", stats.Disposed,
		"confirmed", stats.Confirmed,
		"false_positives", stats.FalsePositives,
		"oracle_failures", stats.OracleFailures)
	return stats
}

// ResolveAll fills ResolvedPath on every record the index can place and
// returns how many were resolved. A nil index resolves nothing.
func ResolveAll(idx *sourceidx.Index, records []findings.Record) int {
	if idx == nil {
		return 0
	}
	resolved := 0
	for i := range records {
		rec := &records[i]
		if path, ok := idx.Resolve(rec.FileHint, rec.StartLine, rec.Snippet); ok {
			rec.ResolvedPath = path
			resolved++
		}
	}
	return resolved
}
