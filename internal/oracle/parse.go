package oracle

import (
	"fmt"
	"strings"

	"github.com/scanio-labs/retriage/pkg/jsonextract"
)

// Verdict is the decoded oracle answer before arbitration normalizes it.
// Confidence stays on whatever scale the model used (0..1 or 0..100);
// clamping happens during arbitration.
type Verdict struct {
	Status     string  `json:"status"`
	Severity   string  `json:"severity"`
	Label      string  `json:"label"`
	Comment    string  `json:"comment"`
	Confidence float64 `json:"confidence"`
}

// ParseVerdict extracts the first JSON object from the raw completion text
// and decodes it. A response without a JSON object, or whose object carries
// no status, is a parse failure and sends the arbitrator down the heuristic
// fallback path. Every other field can be defaulted later; a verdict without
// a status cannot.
func ParseVerdict(raw string) (Verdict, error) {
	var v Verdict
	if err := jsonextract.Decode(raw, &v); err != nil {
		return Verdict{}, fmt.Errorf("oracle response: %w", err)
	}
	if strings.TrimSpace(v.Status) == "" {
		return Verdict{}, fmt.Errorf("oracle response carries no status field")
	}
	return v, nil
}
