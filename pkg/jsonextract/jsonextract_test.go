package jsonextract

import "testing"

func TestFirst_PlainObject(t *testing.T) {
	got, ok := First(`{"status":"confirmed","confidence":90}`)
	if !ok {
		t.Fatalf("expected object to be found")
	}
	if got != `{"status":"confirmed","confidence":90}` {
		t.Fatalf("unexpected extract: %q", got)
	}
}

func TestFirst_ObjectWrappedInProse(t *testing.T) {
	text := `I think this is bad. {"status":"confirmed","severity":"critical","label":"SQLi","comment":"x","confidence":150} Hope that helps!`
	got, ok := First(text)
	if !ok {
		t.Fatalf("expected object to be found")
	}
	want := `{"status":"confirmed","severity":"critical","label":"SQLi","comment":"x","confidence":150}`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFirst_BracesInsideStrings(t *testing.T) {
	text := `prefix {"comment":"uses map[string]int{} and {nested} braces","ok":true}`
	got, ok := First(text)
	if !ok {
		t.Fatalf("expected object to be found")
	}
	want := `{"comment":"uses map[string]int{} and {nested} braces","ok":true}`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFirst_EscapedQuotesInsideStrings(t *testing.T) {
	text := `{"comment":"he said \"run {this}\" twice","n":1}`
	got, ok := First(text)
	if !ok {
		t.Fatalf("expected object to be found")
	}
	if got != text {
		t.Fatalf("expected %q, got %q", text, got)
	}
}

func TestFirst_NestedObjects(t *testing.T) {
	text := `noise {"outer":{"inner":{"deep":1}},"x":2} trailing {"second":true}`
	got, ok := First(text)
	if !ok {
		t.Fatalf("expected object to be found")
	}
	want := `{"outer":{"inner":{"deep":1}},"x":2}`
	if got != want {
		t.Fatalf("expected first object %q, got %q", want, got)
	}
}

func TestFirst_SkipsInvalidBalancedChunk(t *testing.T) {
	// The first balanced chunk is not JSON; the scanner must move on.
	text := `set {x} then {"valid":true}`
	got, ok := First(text)
	if !ok {
		t.Fatalf("expected object to be found")
	}
	if got != `{"valid":true}` {
		t.Fatalf("expected the valid object, got %q", got)
	}
}

func TestFirst_NoObject(t *testing.T) {
	for _, text := range []string{"", "no json here", "almost { but never closed"} {
		if got, ok := First(text); ok {
			t.Fatalf("expected no object in %q, got %q", text, got)
		}
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		Status     string  `json:"status"`
		Confidence float64 `json:"confidence"`
	}
	err := Decode(`verdict follows: {"status":"false_positive","confidence":0.9}`, &v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != "false_positive" {
		t.Fatalf("expected status false_positive, got %q", v.Status)
	}
	if v.Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %v", v.Confidence)
	}
}

func TestDecode_NoObject(t *testing.T) {
	var v map[string]interface{}
	if err := Decode("nothing to see", &v); err == nil {
		t.Fatalf("expected error for text without JSON")
	}
}
