package vcsurl

import (
	"errors"
	"fmt"
	"strings"
)

// Permalink builder errors
var (
	ErrMissingNamespace = errors.New("namespace is required")
	ErrMissingProject   = errors.New("project is required")
	ErrMissingRef       = errors.New("ref (branch, tag, or commit SHA) is required")
	ErrMissingFile      = errors.New("file path is required")
	ErrMissingHost      = errors.New("host is required for Generic/Unknown VCS type (no default available)")
)

// Public hosts used when PermalinkParams carries no Host.
var defaultHosts = map[VCSType]string{
	Github:    "github.com",
	Gitlab:    "gitlab.com",
	Bitbucket: "bitbucket.org",
}

// PermalinkParams holds the ingredients of a VCS file permalink.
type PermalinkParams struct {
	VCSType   VCSType
	Host      string // Self-hosted instance, public host of the VCSType when empty
	Namespace string
	Project   string
	Ref       string // Branch, tag, or commit SHA
	File      string // Repository-relative file path, forward slashes
	StartLine int    // 1-based, 0 means no line anchor
	EndLine   int    // 1-based, 0 or below StartLine means single line
}

func validatePermalinkParams(p PermalinkParams) error {
	if p.Namespace == "" {
		return ErrMissingNamespace
	}
	if p.Project == "" {
		return ErrMissingProject
	}
	if p.Ref == "" {
		return ErrMissingRef
	}
	if p.File == "" {
		return ErrMissingFile
	}
	return nil
}

func resolveHost(vcsType VCSType, host string) (string, error) {
	if host != "" {
		return host, nil
	}
	if defaultHost, ok := defaultHosts[vcsType]; ok {
		return defaultHost, nil
	}
	return "", ErrMissingHost
}

// normalizeFilePath converts backslashes to forward slashes and trims leading slashes.
func normalizeFilePath(file string) string {
	return strings.TrimLeft(strings.ReplaceAll(file, "\\", "/"), "/")
}

// BuildPermalink renders a link into the web UI of the repository.
//
// URL formats per vendor:
//
//	GitHub:    https://{host}/{ns}/{proj}/blob/{ref}/{file}#L{start}-L{end}
//	GitLab:    https://{host}/{ns}/{proj}/-/blob/{ref}/{file}#L{start}-{end}
//	Bitbucket: https://{host}/projects/{ns}/repos/{proj}/browse/{file}?at={ref}#{start}-{end}
//
// Generic and unknown VCS types render in the GitHub format and require an
// explicit Host.
func BuildPermalink(p PermalinkParams) (string, error) {
	if err := validatePermalinkParams(p); err != nil {
		return "", err
	}

	host, err := resolveHost(p.VCSType, p.Host)
	if err != nil {
		return "", err
	}

	file := normalizeFilePath(p.File)
	anchor := lineAnchor(p.VCSType, p.StartLine, p.EndLine)

	switch p.VCSType {
	case Gitlab:
		return fmt.Sprintf("https://%s/%s/%s/-/blob/%s/%s%s", host, p.Namespace, p.Project, p.Ref, file, anchor), nil
	case Bitbucket:
		return fmt.Sprintf("https://%s/projects/%s/repos/%s/browse/%s?at=%s%s", host, p.Namespace, p.Project, file, p.Ref, anchor), nil
	default:
		return fmt.Sprintf("https://%s/%s/%s/blob/%s/%s%s", host, p.Namespace, p.Project, p.Ref, file, anchor), nil
	}
}

// lineAnchor renders the fragment pointing at the finding lines. Every vendor
// spells the range differently.
func lineAnchor(vcsType VCSType, startLine, endLine int) string {
	if startLine <= 0 {
		return ""
	}
	if endLine <= 0 || endLine < startLine {
		endLine = startLine
	}

	switch vcsType {
	case Gitlab:
		if endLine == startLine {
			return fmt.Sprintf("#L%d", startLine)
		}
		return fmt.Sprintf("#L%d-%d", startLine, endLine)
	case Bitbucket:
		if endLine == startLine {
			return fmt.Sprintf("#%d", startLine)
		}
		return fmt.Sprintf("#%d-%d", startLine, endLine)
	default:
		if endLine == startLine {
			return fmt.Sprintf("#L%d", startLine)
		}
		return fmt.Sprintf("#L%d-L%d", startLine, endLine)
	}
}
