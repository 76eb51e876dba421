package gitmeta

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hashicorp/go-hclog"
)

// clearCIEnv blanks the CI variables so hydration stays inert regardless of
// where the tests run.
func clearCIEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"GITHUB_REPOSITORY", "GITHUB_SHA", "GITHUB_REF_NAME", "GITHUB_SERVER_URL",
		"GITLAB_CI", "CI_PROJECT_PATH", "CI_COMMIT_SHA", "CI_COMMIT_REF_NAME", "CI_PROJECT_URL",
		"BITBUCKET_WORKSPACE", "BITBUCKET_REPO_SLUG", "BITBUCKET_COMMIT", "BITBUCKET_BRANCH",
	} {
		t.Setenv(name, "")
	}
}

func initTestRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "app.py"), []byte("x = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("src/app.py"); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://github.com/acme/app.git"},
	}); err != nil {
		t.Fatal(err)
	}

	return dir, hash.String()
}

func TestCollect(t *testing.T) {
	clearCIEnv(t)
	dir, commit := initTestRepo(t)

	md, err := Collect(dir, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if md.BranchName == nil || *md.BranchName != "master" {
		t.Errorf("BranchName = %v, want master", md.BranchName)
	}
	if md.CommitHash == nil || *md.CommitHash != commit {
		t.Errorf("CommitHash = %v, want %s", md.CommitHash, commit)
	}
	if md.RepositoryFullName == nil || *md.RepositoryFullName != "https://github.com/acme/app" {
		t.Errorf("RepositoryFullName = %v, the .git suffix must be trimmed", md.RepositoryFullName)
	}
	if md.RemoteURL != "https://github.com/acme/app.git" {
		t.Errorf("RemoteURL = %q", md.RemoteURL)
	}
	if md.Subfolder != "" {
		t.Errorf("Subfolder = %q, want empty at the repository root", md.Subfolder)
	}
	if md.RepoRootFolder != filepath.Clean(dir) {
		t.Errorf("RepoRootFolder = %q, want %q", md.RepoRootFolder, dir)
	}
}

func TestCollectFromSubfolder(t *testing.T) {
	clearCIEnv(t)
	dir, _ := initTestRepo(t)

	md, err := Collect(filepath.Join(dir, "src"), hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if md.Subfolder != "src" {
		t.Errorf("Subfolder = %q, want src", md.Subfolder)
	}
	if md.RepoRootFolder != filepath.Clean(dir) {
		t.Errorf("RepoRootFolder = %q, want the repository root", md.RepoRootFolder)
	}
}

func TestCollectOutsideRepository(t *testing.T) {
	clearCIEnv(t)
	dir := t.TempDir()

	md, err := Collect(dir, hclog.NewNullLogger())
	if err == nil {
		t.Fatal("expected an error outside a repository")
	}
	if md == nil || md.RepoRootFolder == "" {
		t.Fatal("metadata must still carry the source folder for downstream use")
	}
	if md.Ref() != "" {
		t.Errorf("Ref() = %q, want empty without any metadata", md.Ref())
	}
}

func TestDetectCIEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		provider string
		commit   string
		fullName string
		wantOK   bool
	}{
		{
			name: "github",
			env: map[string]string{
				"GITHUB_REPOSITORY": "acme/app",
				"GITHUB_SHA":        "abc123",
				"GITHUB_REF_NAME":   "main",
				"GITHUB_SERVER_URL": "https://github.com",
			},
			provider: "github",
			commit:   "abc123",
			fullName: "acme/app",
			wantOK:   true,
		},
		{
			name: "gitlab",
			env: map[string]string{
				"GITLAB_CI":          "true",
				"CI_PROJECT_PATH":    "group/app",
				"CI_COMMIT_SHA":      "def456",
				"CI_COMMIT_REF_NAME": "develop",
			},
			provider: "gitlab",
			commit:   "def456",
			fullName: "group/app",
			wantOK:   true,
		},
		{
			name: "bitbucket",
			env: map[string]string{
				"BITBUCKET_WORKSPACE": "acme",
				"BITBUCKET_REPO_SLUG": "app",
				"BITBUCKET_COMMIT":    "0a1b2c",
			},
			provider: "bitbucket",
			commit:   "0a1b2c",
			fullName: "acme/app",
			wantOK:   true,
		},
		{
			name:   "no ci",
			env:    map[string]string{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := func(key string) string { return tt.env[key] }
			env, ok := detectCIEnvironment(lookup)
			if ok != tt.wantOK {
				t.Fatalf("detectCIEnvironment() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if env.provider != tt.provider {
				t.Errorf("provider = %q, want %q", env.provider, tt.provider)
			}
			if env.commitHash != tt.commit {
				t.Errorf("commitHash = %q, want %q", env.commitHash, tt.commit)
			}
			if env.repositoryFullName != tt.fullName {
				t.Errorf("repositoryFullName = %q, want %q", env.repositoryFullName, tt.fullName)
			}
		})
	}
}

func TestMetadataRef(t *testing.T) {
	branch := "main"
	commit := "abc123"

	md := &Metadata{BranchName: &branch}
	if md.Ref() != "main" {
		t.Errorf("Ref() = %q, want the branch", md.Ref())
	}

	md.CommitHash = &commit
	if md.Ref() != "abc123" {
		t.Errorf("Ref() = %q, the commit pin must win", md.Ref())
	}

	var nilMD *Metadata
	if nilMD.Ref() != "" {
		t.Error("nil metadata must yield an empty ref")
	}
}
