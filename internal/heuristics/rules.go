package heuristics

import (
	"path/filepath"
	"strings"
)

// Hint lists for path classification. Matching is case-insensitive over
// slash-normalized paths.
var (
	docHints = []string{
		"docs/", "/docs/", "documentation", "readme", "changelog",
	}
	testHints = []string{
		"/tests/", "tests/", "/test_", "_tests/", "_test.py", "/test/",
		"fixtures/", "migrations/",
	}
	vendorHints = []string{
		"/site-packages/", "/dist-packages/",
	}
	safeExts = []string{
		".txt", ".rst", ".md", ".yml", ".yaml", ".toml", ".ini",
	}
)

// configLeakRules are the rules that cannot be real findings inside
// documentation or test material: sample configs legitimately carry empty
// or hardcoded keys there.
var configLeakRules = map[string]struct{}{
	"CONFIG_CRYPTO_KEY_NULL":      {},
	"CONFIG_CRYPTO_KEY_EMPTY":     {},
	"CONFIG_CRYPTO_KEY_HARDCODED": {},
	"CONFIG_PASSWORD_HARDCODED":   {},
	"HTML_CRYPTO_MISSING_STEP":    {},
}

// fakeSecretMarkers flag snippets built around obvious placeholder values.
var fakeSecretMarkers = []string{"fake-key", "dummy", "example", "placeholder"}

func pathHasAny(path string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(path, hint) {
			return true
		}
	}
	return false
}

func hasSafeExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, safe := range safeExts {
		if ext == safe {
			return true
		}
	}
	return false
}

func isConfigLeakRule(rule string) bool {
	_, ok := configLeakRules[strings.ToUpper(rule)]
	return ok
}

// isTextualSnippet recognizes reStructuredText bullets, directives and
// commented samples, the shapes documentation snippets come in.
func isTextualSnippet(snippet string) bool {
	s := strings.TrimSpace(snippet)
	if strings.HasPrefix(s, "* ") || strings.HasPrefix(s, ".. ") {
		return true
	}
	return strings.HasPrefix(s, "# ") && strings.Contains(strings.ToLower(s), "sample")
}

// hasTestMarkers reports whether the snippet reads like test code.
func hasTestMarkers(snippet string) bool {
	return strings.Contains(snippet, "assert") ||
		strings.Contains(snippet, "fixture") ||
		strings.Contains(snippet, "setUp")
}

func isSQLRule(rule string) bool {
	return strings.Contains(strings.ToUpper(rule), "SQL")
}

// hasSQLSignature detects raw SQL construction: ORM escape hatches or
// string interpolation feeding a SELECT.
func hasSQLSignature(snippet string) bool {
	despaced := strings.ReplaceAll(snippet, " ", "")
	if strings.Contains(despaced, ".extra(") || strings.Contains(despaced, ".raw(") {
		return true
	}
	return strings.Contains(strings.ToUpper(snippet), "SELECT") && strings.Contains(snippet, " % ")
}

// containsFakeSecretMarker matches placeholder markers on word boundaries,
// so "example" hits but "counterexamples" does not.
func containsFakeSecretMarker(snippet string) bool {
	lowered := strings.ToLower(snippet)
	for _, marker := range fakeSecretMarkers {
		if containsWord(lowered, marker) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	for from := 0; ; {
		idx := strings.Index(text[from:], word)
		if idx < 0 {
			return false
		}
		idx += from
		end := idx + len(word)
		beforeOK := idx == 0 || !isWordByte(text[idx-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		from = idx + 1
	}
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
