package report

import (
	"strings"
	"unicode"
)

// Signals that a line of extracted PDF text is source code rather than prose.
// None of them is reliable alone, so the scanner combines a line-number
// prefix check, REPL markers, extension-specific shape tests and a generic
// punctuation-density fallback.

const codePunctuation = "(){}[]=<>;"

// strongCodeKeywords mark a line as code on their own. The set leans on the
// languages the supported scanners cover and avoids common English words.
var strongCodeKeywords = map[string]struct{}{
	"def": {}, "class": {}, "return": {}, "import": {}, "elif": {},
	"except": {}, "raise": {}, "assert": {}, "lambda": {}, "self": {},
	"yield": {}, "function": {}, "const": {}, "let": {}, "printf": {},
	"struct": {}, "typedef": {},
}

// weakCodeKeywords double as English words, so they only count together with
// code punctuation on the same line.
var weakCodeKeywords = map[string]struct{}{
	"if": {}, "else": {}, "for": {}, "while": {}, "from": {}, "with": {},
	"try": {}, "var": {}, "new": {}, "pass": {}, "print": {},
	"select": {}, "insert": {}, "update": {}, "delete": {}, "where": {},
}

// stripLineNumber removes a leading "NN:", "NN." or "NN " token. It reports
// the remainder, the separator that followed the digits and whether a token
// was present at all. A line of bare digits yields an empty remainder.
func stripLineNumber(s string) (rest string, sep byte, ok bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return s, 0, false
	}
	if i == len(s) {
		return "", 0, true
	}
	switch s[i] {
	case ':', '.':
		return strings.TrimSpace(s[i+1:]), s[i], true
	case ' ', '\t':
		return strings.TrimSpace(s[i:]), ' ', true
	default:
		return s, 0, false
	}
}

func hasREPLPrefix(s string) bool {
	if strings.HasPrefix(s, ">>>") {
		return true
	}
	return strings.HasPrefix(s, "...") && strings.ContainsAny(s[3:], codePunctuation)
}

// looksLikeCode applies the shape test for the hinted file extension, then
// the generic keyword and punctuation-density fallbacks.
func looksLikeCode(s, ext string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	switch ext {
	case ".yml", ".yaml":
		if looksLikeYAML(s) {
			return true
		}
	case ".ini", ".cfg", ".conf", ".toml", ".env", ".properties":
		if looksLikeINI(s) {
			return true
		}
	case ".html", ".htm", ".xml", ".xhtml", ".jsp":
		if looksLikeMarkup(s) {
			return true
		}
	case ".json":
		if looksLikeJSON(s) {
			return true
		}
	}
	if hasCodeKeyword(s) {
		return true
	}
	return symbolDensity(s) >= 0.12 && strings.ContainsAny(s, codePunctuation)
}

// looseCodeCandidate is the relaxed test used by the fallback scan when the
// strict pass harvested nothing.
func looseCodeCandidate(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || isAllDigits(s) {
		return false
	}
	return strings.ContainsAny(s, codePunctuation+":.")
}

func looksLikeYAML(s string) bool {
	if strings.HasPrefix(s, "- ") || s == "-" {
		return true
	}
	key, _, found := strings.Cut(s, ":")
	if !found {
		return false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

func looksLikeINI(s string) bool {
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return true
	}
	key, _, found := strings.Cut(s, "=")
	if !found {
		return false
	}
	key = strings.TrimSpace(key)
	return key != "" && !strings.ContainsAny(key, " \t")
}

func looksLikeMarkup(s string) bool {
	return strings.HasPrefix(s, "<") && strings.Contains(s, ">")
}

func looksLikeJSON(s string) bool {
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "}") ||
		strings.HasPrefix(s, "[") || strings.HasPrefix(s, "]") {
		return true
	}
	return strings.HasPrefix(s, "\"") && strings.Contains(s, ":")
}

func hasCodeKeyword(s string) bool {
	punctuated := strings.ContainsAny(s, codePunctuation)
	for _, word := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}) {
		lowered := strings.ToLower(word)
		if _, ok := strongCodeKeywords[lowered]; ok {
			return true
		}
		if _, ok := weakCodeKeywords[lowered]; ok && punctuated {
			return true
		}
	}
	return false
}

func symbolDensity(s string) float64 {
	if s == "" {
		return 0
	}
	symbols := 0
	for _, r := range s {
		if strings.ContainsRune("(){}[]=<>;:.,+-*/%&|!'\"`", r) {
			symbols++
		}
	}
	return float64(symbols) / float64(len([]rune(s)))
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
