// Package gitmeta collects repository metadata for the source tree under
// triage: branch, commit, remote and the subfolder the tree sits in. The
// metadata feeds permalinks in exported artifacts and is always optional,
// since findings can be triaged against a bare directory too.
package gitmeta

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/hashicorp/go-hclog"
)

// Metadata describes the repository context of a source tree.
type Metadata struct {
	BranchName         *string
	CommitHash         *string
	RepositoryFullName *string
	RemoteURL          string
	Subfolder          string
	RepoRootFolder     string
}

// Ref returns the best reference for permalinks: the commit pin when known,
// the branch otherwise.
func (m *Metadata) Ref() string {
	if m == nil {
		return ""
	}
	if m.CommitHash != nil && *m.CommitHash != "" {
		return *m.CommitHash
	}
	if m.BranchName != nil && *m.BranchName != "" {
		return *m.BranchName
	}
	return ""
}

// Collect gathers repository metadata for sourceFolder. The folder may sit
// anywhere inside a working copy; the repository root is discovered by
// walking up. Gaps left by a detached or absent checkout are filled from CI
// environment variables when the process runs under a known CI.
func Collect(sourceFolder string, logger hclog.Logger) (*Metadata, error) {
	if sourceFolder == "" {
		return &Metadata{}, fmt.Errorf("source folder is not set")
	}

	if absSource, err := filepath.Abs(sourceFolder); err == nil {
		sourceFolder = absSource
	}

	md := &Metadata{
		RepoRootFolder: filepath.Clean(sourceFolder),
	}

	repoRoot, err := findRepositoryRoot(sourceFolder)
	if err != nil {
		hydrateFromCI(md, logger)
		return md, err
	}
	md.RepoRootFolder = filepath.Clean(repoRoot)

	repo, err := git.PlainOpen(repoRoot)
	if err != nil {
		hydrateFromCI(md, logger)
		return md, fmt.Errorf("failed to open repository: %w", err)
	}

	if rel, err := filepath.Rel(repoRoot, sourceFolder); err == nil && rel != "." {
		md.Subfolder = filepath.ToSlash(rel)
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			branchName := head.Name().Short()
			md.BranchName = &branchName
		}
		hash := head.Hash().String()
		md.CommitHash = &hash
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if cfg := remote.Config(); cfg != nil && len(cfg.URLs) > 0 {
			md.RemoteURL = cfg.URLs[0]
			repositoryFullName := strings.TrimSuffix(cfg.URLs[0], ".git")
			md.RepositoryFullName = &repositoryFullName
		}
	}

	hydrateFromCI(md, logger)
	return md, nil
}

// findRepositoryRoot walks up from sourceFolder until a directory opens as
// a git repository.
func findRepositoryRoot(sourceFolder string) (string, error) {
	if sourceFolder == "" {
		return "", fmt.Errorf("source folder is not set")
	}

	for {
		if _, err := git.PlainOpen(sourceFolder); err == nil {
			return sourceFolder, nil
		}

		parent := filepath.Dir(sourceFolder)
		if parent == sourceFolder {
			break
		}
		sourceFolder = parent
	}

	return "", fmt.Errorf("source folder is not inside a git repository")
}
