package export

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/scanio-labs/retriage/internal/findings"
	"github.com/scanio-labs/retriage/internal/gitmeta"
	"github.com/scanio-labs/retriage/pkg/shared/vcsurl"
)

// Permalink builds a stable web link to the finding's resolved location. It
// reports false whenever any ingredient is missing: no metadata, no remote,
// no ref to pin, or a finding that never resolved against the tree.
func Permalink(md *gitmeta.Metadata, rec findings.Record) (string, bool) {
	if md == nil || md.RemoteURL == "" || md.Ref() == "" || rec.ResolvedPath == "" {
		return "", false
	}

	repoRel, ok := repoRelativePath(md, rec.ResolvedPath)
	if !ok {
		return "", false
	}

	remote, err := vcsurl.Parse(md.RemoteURL)
	if err != nil || remote.Namespace == "" || remote.Repository == "" {
		return "", false
	}

	link, err := vcsurl.BuildPermalink(vcsurl.PermalinkParams{
		VCSType:   remote.VCSType,
		Host:      remote.ParsedURL.Hostname(),
		Namespace: remote.Namespace,
		Project:   remote.Repository,
		Ref:       md.Ref(),
		File:      repoRel,
		StartLine: rec.StartLine,
		EndLine:   rec.EndLine,
	})
	if err != nil {
		return "", false
	}
	return link, true
}

// repoRelativePath turns a resolved location into a repository-relative slash
// path. Relative locations are joined with the subfolder the indexed tree
// occupies inside the checkout; absolute ones are re-anchored at the
// repository root and rejected when they point outside it.
func repoRelativePath(md *gitmeta.Metadata, resolved string) (string, bool) {
	native := filepath.FromSlash(resolved)
	if filepath.IsAbs(native) {
		if md.RepoRootFolder == "" {
			return "", false
		}
		rel, err := filepath.Rel(md.RepoRootFolder, native)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", false
		}
		return filepath.ToSlash(rel), true
	}
	return path.Join(md.Subfolder, filepath.ToSlash(native)), true
}
