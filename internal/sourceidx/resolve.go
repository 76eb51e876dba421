package sourceidx

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scanio-labs/retriage/internal/findings"
	"github.com/scanio-labs/retriage/pkg/shared/files"
)

// minNeedleLength filters snippet lines too short to be meaningful
// content probes.
const minNeedleLength = 6

// Resolve maps a reported file hint onto an indexed file.
//
// Absolute hints that exist on disk are returned as-is. Everything else is
// normalized and matched against the tree: exact relative path first, then
// the longest matching path tail, and among several tail candidates the one
// whose content best fits the reported line and snippet. Resolution is
// deterministic for identical inputs over an unchanged tree.
//
// The returned path is relative to the index root unless the absolute
// shortcut fired. ok is false only when the hint is empty, unknown or
// matches nothing.
func (ix *Index) Resolve(hint string, line int, snippet string) (string, bool) {
	if hint == "" || hint == findings.UnknownFile {
		return "", false
	}

	native := filepath.FromSlash(strings.ReplaceAll(hint, "\\", "/"))
	if filepath.IsAbs(native) {
		if info, err := os.Stat(native); err == nil && info.Mode().IsRegular() {
			return filepath.Clean(native), true
		}
	}

	normalized := normalizeHint(hint)
	if normalized == "" {
		return "", false
	}

	snap := ix.snapshot()
	if rel, ok := snap.byRel[normalized]; ok {
		return rel, true
	}

	candidates := snap.tailCandidates(normalized)
	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		return candidates[0], true
	}
	return ix.scoreCandidates(candidates, line, snippet), true
}

// normalizeHint strips separators and prefix dots the way scanners mangle
// paths, and lowercases for case-insensitive matching.
func normalizeHint(hint string) string {
	p := strings.ReplaceAll(strings.TrimSpace(hint), "\\", "/")
	p = strings.TrimLeft(p, "./")
	return strings.ToLower(p)
}

// tailCandidates finds the longest hint tail known to the index and returns
// its matches. Longer alignments win over shorter ones.
func (s *snapshot) tailCandidates(normalized string) []string {
	segments := strings.Split(normalized, "/")
	longest := maxTailSegments
	if len(segments) < longest {
		longest = len(segments)
	}
	for n := longest; n >= 1; n-- {
		tail := strings.Join(segments[len(segments)-n:], "/")
		if hits := s.byTail[tail]; len(hits) > 0 {
			return hits
		}
	}
	return nil
}

// scoreCandidates ranks tail matches by how well their content fits the
// report: containing the claimed line number scores a fixed bonus and the
// first snippet needle found verbatim scores its own length. The first
// candidate in walk order wins ties, and with no evidence at all the first
// candidate is still returned so a tail match never resolves to nothing.
func (ix *Index) scoreCandidates(candidates []string, line int, snippet string) string {
	needles := snippetNeedles(snippet)

	best := candidates[0]
	bestScore := -1
	for _, rel := range candidates {
		score := 0
		text, err := files.ReadTextFile(ix.AbsPath(rel))
		if err == nil {
			lineCount := strings.Count(text, "\n") + 1
			if line >= 1 && line <= lineCount {
				score += ix.opts.LineMatchScore
			}
			for _, needle := range needles {
				if strings.Contains(text, needle) {
					score += len(needle)
					break
				}
			}
		} else {
			ix.logger.Debug("cannot read resolve candidate", "path", rel, "error", err)
		}
		if score > bestScore {
			best, bestScore = rel, score
		}
	}
	return best
}

// snippetNeedles turns a snippet into content probes: non-blank trimmed
// lines of useful length, longest first.
func snippetNeedles(snippet string) []string {
	var needles []string
	for _, line := range strings.Split(snippet, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) >= minNeedleLength {
			needles = append(needles, trimmed)
		}
	}
	sort.SliceStable(needles, func(i, j int) bool {
		return len(needles[i]) > len(needles[j])
	})
	return needles
}
