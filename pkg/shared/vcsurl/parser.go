// Package vcsurl parses git remote URLs and builds web permalinks to files
// inside the repositories they point at.
package vcsurl

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

type Protocol int

const (
	SSH Protocol = iota
	HTTPS
)

type VCSType int

const (
	UnknownVCS VCSType = iota // VCS type not specified, determined from the URL hostname
	GenericVCS                // Hostname matched no known vendor, generic handling applies
	Github
	Gitlab
	Bitbucket
)

var validSchemes = []string{"http", "https", "ssh"}

var scpLikeRemote = regexp.MustCompile(`^git@([^:]+)\:(.*)$`)

func isValidScheme(scheme string) bool {
	for _, validScheme := range validSchemes {
		if scheme == validScheme {
			return true
		}
	}
	return false
}

// pathSegments splits the URL path into non-empty segments.
func pathSegments(path string) []string {
	var segments []string
	for _, dir := range strings.Split(path, "/") {
		if dir != "" {
			segments = append(segments, dir)
		}
	}
	return segments
}

// VCSURL represents a parsed VCS remote URL.
type VCSURL struct {
	Namespace  string
	Repository string
	HTTPUrl    string
	SSHUrl     string
	Raw        string
	VCSType    VCSType
	ParsedURL  *url.URL
}

// Protocol reports whether the URL reaches the VCS over HTTPS or SSH.
func (u *VCSURL) Protocol() Protocol {
	if u.ParsedURL.Scheme == "http" || u.ParsedURL.Scheme == "https" {
		return HTTPS
	}
	return SSH
}

// determineVCSType guesses the vendor from the hostname.
func determineVCSType(host string) (VCSType, error) {
	switch {
	case strings.Contains(host, "github"):
		return Github, nil
	case strings.Contains(host, "gitlab"):
		return Gitlab, nil
	case strings.Contains(host, "bitbucket"):
		return Bitbucket, nil
	default:
		return GenericVCS, fmt.Errorf("unknown VCS type for host: %s", host)
	}
}

// Parse parses a VCS remote URL, determining the vendor from the hostname.
func Parse(raw string) (*VCSURL, error) {
	return ParseForVCSType(raw, UnknownVCS)
}

// ParseForVCSType parses a VCS remote URL with a caller-chosen vendor. The
// scp-like "git@host:path" form git prints for SSH remotes is accepted and
// rewritten to a proper URL first.
func ParseForVCSType(raw string, vcsType VCSType) (*VCSURL, error) {
	var vcsURL VCSURL
	vcsURL.Raw = raw

	rawURL := raw
	if parts := scpLikeRemote.FindStringSubmatch(rawURL); len(parts) == 3 {
		rawURL = fmt.Sprintf("ssh://%s/%s", parts[1], parts[2])
	}
	rawURL = strings.TrimSuffix(rawURL, ".git")

	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, err
	}
	vcsURL.ParsedURL = parsedURL

	if !isValidScheme(vcsURL.ParsedURL.Scheme) {
		return nil, fmt.Errorf("invalid scheme: %s", vcsURL.Raw)
	}

	effectiveVCSType := vcsType
	if effectiveVCSType == UnknownVCS {
		effectiveVCSType, _ = determineVCSType(vcsURL.ParsedURL.Hostname())
	}
	vcsURL.VCSType = effectiveVCSType

	if effectiveVCSType == Bitbucket {
		return handleBitbucket(vcsURL)
	}
	return handleGenericVCS(vcsURL)
}

// handleGenericVCS covers hosts where the path is namespace segments followed
// by the repository name. Nested namespaces collapse into one Namespace value.
func handleGenericVCS(u VCSURL) (*VCSURL, error) {
	segments := pathSegments(u.ParsedURL.Path)

	// Whole VCS
	if len(segments) == 0 {
		return &u, nil
	}

	// Whole namespace
	if len(segments) == 1 {
		u.Namespace = segments[0]
		return &u, nil
	}

	u.Namespace = path.Join(segments[0 : len(segments)-1]...)
	u.Repository = segments[len(segments)-1]
	u.HTTPUrl = fmt.Sprintf("https://%s/%s/%s", u.ParsedURL.Hostname(), u.Namespace, u.Repository)
	u.SSHUrl = fmt.Sprintf("ssh://git@%s/%s/%s.git", u.ParsedURL.Hostname(), u.Namespace, u.Repository)
	return &u, nil
}

// handleBitbucket covers the Bitbucket Server URL formats: scm clone paths,
// Web UI browse paths for project and user repositories, and SSH remotes.
func handleBitbucket(u VCSURL) (*VCSURL, error) {
	segments := pathSegments(u.ParsedURL.Path)

	switch {
	case len(segments) == 0:
		// Whole VCS - https://bitbucket.example.com/
		u.HTTPUrl = u.Raw
		return &u, nil
	case len(segments) == 2 && segments[0] == "projects" && u.Protocol() == HTTPS:
		// Whole project from a Web UI URL - https://bitbucket.example.com/projects/<project>
		u.Namespace = segments[1]
		u.HTTPUrl = u.Raw
		return &u, nil
	case len(segments) > 3 && segments[0] == "users" && segments[2] == "repos" && u.Protocol() == HTTPS:
		// User repository - https://bitbucket.example.com/users/<username>/repos/<repo>/browse
		u.Namespace = segments[1]
		u.Repository = segments[3]
		setBitbucketURLs(&u, false, "", true)
		return &u, nil
	case len(segments) > 3 && segments[0] == "projects" && segments[2] == "repos" && u.Protocol() == HTTPS:
		// Project repository from a Web UI URL - https://bitbucket.example.com/projects/<project>/repos/<repo>/browse
		u.Namespace = segments[1]
		u.Repository = segments[3]
		setBitbucketURLs(&u, false, "", false)
		return &u, nil
	case len(segments) >= 2 && u.Protocol() == HTTPS && segments[0] == "scm":
		// SCM clone path - https://bitbucket.example.com/scm/<project>/<repo>.git
		u.Namespace = segments[1]
		if len(segments) > 2 {
			u.Repository = segments[len(segments)-1]
			setBitbucketURLs(&u, false, "", false)
		}
		return &u, nil
	case u.Protocol() == SSH:
		// SSH remote - ssh://git@bitbucket.example.com:7989/<project>/<repo>.git
		// and ssh://git@bitbucket.example.com:7989/~<username>/<repo>.git
		u.Namespace = segments[0]
		if len(segments) > 1 {
			u.Repository = segments[len(segments)-1]
			// An SSH remote may carry a non-standard port, keep it.
			setBitbucketURLs(&u, true, u.ParsedURL.Port(), false)
		}
		return &u, nil
	default:
		return &u, fmt.Errorf("invalid Bitbucket URL: %s", u.Raw)
	}
}

// setBitbucketURLs fills the canonical clone links for a Bitbucket Server
// repository.
func setBitbucketURLs(u *VCSURL, usePort bool, port string, isUserRepo bool) {
	if isUserRepo {
		u.HTTPUrl = fmt.Sprintf("https://%s/users/%s/repos/%s/browse", u.ParsedURL.Hostname(), u.Namespace, u.Repository)
		u.SSHUrl = fmt.Sprintf("ssh://git@%s:7989/~%s/%s.git", u.ParsedURL.Hostname(), u.Namespace, u.Repository)
	} else {
		u.HTTPUrl = fmt.Sprintf("https://%s/scm/%s/%s.git", u.ParsedURL.Hostname(), u.Namespace, u.Repository)
		u.SSHUrl = fmt.Sprintf("ssh://git@%s:7989/%s/%s.git", u.ParsedURL.Hostname(), u.Namespace, u.Repository)
	}

	if usePort {
		u.SSHUrl = fmt.Sprintf("ssh://git@%s:%s/%s/%s.git", u.ParsedURL.Hostname(), port, u.Namespace, u.Repository)
		if isUserRepo {
			u.SSHUrl = fmt.Sprintf("ssh://git@%s:%s/~%s/%s.git", u.ParsedURL.Hostname(), port, u.Namespace, u.Repository)
		}
	}
}
