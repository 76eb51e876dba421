// Package jsonextract locates JSON objects embedded in free-form text.
//
// Model completions rarely arrive as clean JSON: the object is usually
// wrapped in prose, markdown fences or apologies. This package finds the
// first complete top-level object by walking brace depth with string and
// escape tracking. No regular expressions are involved.
package jsonextract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// First returns the first complete top-level JSON object found in s.
// The second return value reports whether an object was found.
func First(s string) (string, bool) {
	for start := 0; start < len(s); start++ {
		idx := strings.IndexByte(s[start:], '{')
		if idx < 0 {
			return "", false
		}
		start += idx

		if end, ok := scanBalanced(s, start); ok {
			candidate := s[start:end]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
			// Balanced but not valid JSON, keep looking past this brace.
		}
	}
	return "", false
}

// Decode finds the first JSON object in s and unmarshals it into v.
func Decode(s string, v interface{}) error {
	obj, ok := First(s)
	if !ok {
		return fmt.Errorf("no JSON object found in text")
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("failed to decode extracted object: %w", err)
	}
	return nil
}

// scanBalanced walks s from the opening brace at start and returns the index
// one past the matching closing brace. Braces inside string literals do not
// count; backslash escapes inside strings are skipped.
func scanBalanced(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
