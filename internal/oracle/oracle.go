// Package oracle implements the judgment side of triage: prompt
// construction, provider transports and response decoding. Providers return
// raw completion text; deciding what that text means stays with the
// arbitrator.
package oracle

import "context"

// Provider produces a raw completion for a fully rendered prompt. Judge
// must respect ctx and return within the configured provider timeout; a
// transport failure surfaces as an error, never as fabricated text.
type Provider interface {
	Name() string
	Judge(ctx context.Context, prompt string) (string, error)
}

// ModelLister is implemented by providers that can enumerate the models
// available to the configured credentials.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// SystemPrompt states the response contract. Providers send it as the
// system message, or prepend it when the backend has no system role.
const SystemPrompt = `You are an expert in static code analysis and application security.
Your task is to annotate rule findings from SARIF and scanner reports:
decide the status, the severity, a short label and a comment, and state your
confidence as a percentage.

RESPONSE FORMAT, JSON only:
{
  "status": "confirmed | false_positive | insufficient_evidence",
  "severity": "critical | medium | low | info",
  "label": "short problem name",
  "comment": "2-3 sentences of explanation",
  "confidence": 0..100
}`
