package oracle

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxSnippetChars     = 1200
	defaultContextChars = 6000
	truncationMark      = "…<truncated>"
)

// Request carries one finding's context to the prompt builder.
type Request struct {
	Rule     string
	Severity string
	File     string
	Line     int
	Message  string
	Snippet  string

	// Context is the resolved file content. It is trimmed to ContextLimit
	// characters before rendering; zero means the default limit.
	Context      string
	ContextLimit int

	// Hints are heuristic observations. The prompt labels them as signals
	// so the model weighs rather than obeys them.
	Hints []string
}

// BuildPrompt renders the user part of the oracle conversation. The system
// part is the fixed SystemPrompt.
func BuildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rule: %s\n", req.Rule)
	fmt.Fprintf(&b, "Level (report): %s\n", req.Severity)
	fmt.Fprintf(&b, "File: %s\n", req.File)
	fmt.Fprintf(&b, "Line: %d\n", req.Line)
	fmt.Fprintf(&b, "Message: %s\n\n", req.Message)

	b.WriteString("Snippet:\n```\n")
	b.WriteString(truncate(strings.TrimSpace(req.Snippet), maxSnippetChars))
	b.WriteString("\n```\n")

	if req.Context != "" {
		limit := req.ContextLimit
		if limit <= 0 {
			limit = defaultContextChars
		}
		fmt.Fprintf(&b, "\nFile content (trimmed to %d chars):\n```text\n", limit)
		b.WriteString(trimTo(req.Context, limit))
		b.WriteString("\n```\n")
	}

	if len(req.Hints) > 0 {
		b.WriteString("\nHeuristic hints (signals, not verdicts):\n")
		for _, hint := range req.Hints {
			fmt.Fprintf(&b, "- %s\n", hint)
		}
	}

	b.WriteString("\nReturn strictly JSON as specified above.")
	return b.String()
}

// trimTo cuts s to the limit and marks the cut so the model knows the text
// is incomplete.
func trimTo(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return truncate(s, limit) + "\n" + truncationMark
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
