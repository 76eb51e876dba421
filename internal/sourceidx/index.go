// Package sourceidx indexes a source tree and resolves the file hints
// scanners report, which rarely match the checkout layout exactly: hints
// come with build-host prefixes, mixed separators or as bare file names.
package sourceidx

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/pkg/shared/config"
	"github.com/scanio-labs/retriage/pkg/shared/files"
)

// maxTailSegments bounds how many trailing path segments are indexed as
// lookup keys for suffix matching.
const maxTailSegments = 4

// defaultSkipDirs are pruned from the walk wherever they appear. Extra
// names come in through Options.
var defaultSkipDirs = []string{
	"venv", ".venv", ".git", ".idea", "__pycache__",
	"node_modules", "dist", "build",
}

// Options carries the index tunables.
type Options struct {
	// SkipDirs are directory names pruned in addition to the defaults.
	SkipDirs []string
	// LineMatchScore is awarded to a candidate whose file is long enough
	// to contain the reported line.
	LineMatchScore int
}

// OptionsFromConfig projects the triage tunables into index options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SkipDirs:       cfg.Triage.IndexSkipDirs,
		LineMatchScore: cfg.Triage.ResolverLineScore,
	}
}

// Index maps normalized paths, path tails and file names onto the files of
// one source tree. A built snapshot is immutable; Rebuild swaps in a fresh
// one, so readers racing a rebuild always see a consistent view.
type Index struct {
	logger   hclog.Logger
	root     string
	skipDirs map[string]struct{}
	opts     Options

	mu   sync.RWMutex
	snap *snapshot
}

type snapshot struct {
	// byRel maps the lowercased slash-separated relative path to the
	// relative path in its on-disk spelling.
	byRel map[string]string
	// byTail maps 1..maxTailSegments trailing segments to all relative
	// paths ending in them, in walk order.
	byTail map[string][]string
	// ordered keeps walk order for deterministic logging and tie-breaks.
	ordered []string
}

// New builds an index over root. The walk runs once here; call Rebuild to
// pick up tree changes later.
func New(root string, opts Options, logger hclog.Logger) (*Index, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source root %q: %w", root, err)
	}
	if err := files.ValidateFolderPath(abs); err != nil {
		return nil, fmt.Errorf("source root %q is not usable: %w", root, err)
	}

	if opts.LineMatchScore <= 0 {
		opts.LineMatchScore = config.DefaultTriageConfig().ResolverLineScore
	}
	skip := make(map[string]struct{})
	for _, name := range defaultSkipDirs {
		skip[strings.ToLower(name)] = struct{}{}
	}
	for _, name := range opts.SkipDirs {
		if trimmed := strings.ToLower(strings.TrimSpace(name)); trimmed != "" {
			skip[trimmed] = struct{}{}
		}
	}

	ix := &Index{logger: logger, root: abs, skipDirs: skip, opts: opts}
	if err := ix.Rebuild(); err != nil {
		return nil, err
	}
	return ix, nil
}

// Rebuild walks the tree again and atomically replaces the snapshot.
func (ix *Index) Rebuild() error {
	snap, err := ix.buildSnapshot()
	if err != nil {
		return fmt.Errorf("failed to index source tree %q: %w", ix.root, err)
	}

	ix.mu.Lock()
	ix.snap = snap
	ix.mu.Unlock()

	ix.logger.Debug("indexed source tree", "root", ix.root, "files", len(snap.ordered))
	return nil
}

func (ix *Index) buildSnapshot() (*snapshot, error) {
	snap := &snapshot{
		byRel:  make(map[string]string),
		byTail: make(map[string][]string),
	}

	err := filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == ix.root {
				return err
			}
			ix.logger.Debug("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if path == ix.root {
				return nil
			}
			if _, skip := ix.skipDirs[strings.ToLower(d.Name())]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(ix.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		lowered := strings.ToLower(rel)

		snap.ordered = append(snap.ordered, rel)
		snap.byRel[lowered] = rel

		segments := strings.Split(lowered, "/")
		for n := 1; n <= maxTailSegments && n <= len(segments); n++ {
			tail := strings.Join(segments[len(segments)-n:], "/")
			snap.byTail[tail] = append(snap.byTail[tail], rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (ix *Index) snapshot() *snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.snap
}

// Root returns the absolute source root the index was built over.
func (ix *Index) Root() string {
	return ix.root
}

// Len returns the number of indexed files.
func (ix *Index) Len() int {
	return len(ix.snapshot().ordered)
}

// AbsPath turns a resolved relative path back into an absolute one.
// Absolute inputs pass through untouched.
func (ix *Index) AbsPath(resolved string) string {
	native := filepath.FromSlash(resolved)
	if filepath.IsAbs(native) {
		return native
	}
	return filepath.Join(ix.root, native)
}
