package gitmeta

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// lookupFunc fetches environment variables and defaults to os.Getenv.
// Injected in tests.
type lookupFunc func(string) string

type ciEnvironment struct {
	provider           string
	commitHash         string
	branchName         string
	repositoryFullName string
	remoteURL          string
}

// hydrateFromCI fills metadata gaps from CI environment variables. Values
// read from the working copy always win; CI only supplements what a
// detached or absent checkout could not provide.
func hydrateFromCI(md *Metadata, logger hclog.Logger) {
	env, ok := detectCIEnvironment(os.Getenv)
	if !ok {
		return
	}
	logger.Debug("supplementing repository metadata from CI environment", "provider", env.provider)

	if md.CommitHash == nil && env.commitHash != "" {
		commit := env.commitHash
		md.CommitHash = &commit
	}
	if md.BranchName == nil && env.branchName != "" {
		branch := env.branchName
		md.BranchName = &branch
	}
	if md.RepositoryFullName == nil && env.repositoryFullName != "" {
		fullName := env.repositoryFullName
		md.RepositoryFullName = &fullName
	}
	if md.RemoteURL == "" && env.remoteURL != "" {
		md.RemoteURL = env.remoteURL
	}
}

func detectCIEnvironment(lookup lookupFunc) (ciEnvironment, bool) {
	switch {
	case lookup("GITHUB_REPOSITORY") != "" || lookup("GITHUB_SHA") != "":
		return githubEnvironment(lookup), true
	case strings.EqualFold(lookup("GITLAB_CI"), "true") || lookup("CI_PROJECT_PATH") != "":
		return gitlabEnvironment(lookup), true
	case lookup("BITBUCKET_WORKSPACE") != "" || lookup("BITBUCKET_REPO_SLUG") != "":
		return bitbucketEnvironment(lookup), true
	}
	return ciEnvironment{}, false
}

func githubEnvironment(lookup lookupFunc) ciEnvironment {
	fullName := lookup("GITHUB_REPOSITORY")
	remote := ""
	if server := lookup("GITHUB_SERVER_URL"); server != "" && fullName != "" {
		remote = strings.TrimRight(server, "/") + "/" + fullName
	}
	return ciEnvironment{
		provider:           "github",
		commitHash:         lookup("GITHUB_SHA"),
		branchName:         lookup("GITHUB_REF_NAME"),
		repositoryFullName: fullName,
		remoteURL:          remote,
	}
}

func gitlabEnvironment(lookup lookupFunc) ciEnvironment {
	return ciEnvironment{
		provider:           "gitlab",
		commitHash:         lookup("CI_COMMIT_SHA"),
		branchName:         lookup("CI_COMMIT_REF_NAME"),
		repositoryFullName: lookup("CI_PROJECT_PATH"),
		remoteURL:          lookup("CI_PROJECT_URL"),
	}
}

func bitbucketEnvironment(lookup lookupFunc) ciEnvironment {
	fullName := ""
	if workspace, slug := lookup("BITBUCKET_WORKSPACE"), lookup("BITBUCKET_REPO_SLUG"); workspace != "" && slug != "" {
		fullName = workspace + "/" + slug
	}
	return ciEnvironment{
		provider:           "bitbucket",
		commitHash:         lookup("BITBUCKET_COMMIT"),
		branchName:         lookup("BITBUCKET_BRANCH"),
		repositoryFullName: fullName,
		remoteURL:          lookup("BITBUCKET_GIT_HTTP_ORIGIN"),
	}
}
