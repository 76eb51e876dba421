package oracle

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/pkg/shared/config"
)

func TestYandexModelURI(t *testing.T) {
	tests := []struct {
		folder, model string
		want          string
	}{
		{"b1folder", "yandexgpt-lite/latest", "gpt://b1folder/yandexgpt-lite/latest"},
		{"b1folder", "yandexgpt-pro", "gpt://b1folder/yandexgpt-pro"},
		{"ignored", "gpt://other/yandexgpt", "gpt://other/yandexgpt"},
	}
	for _, tt := range tests {
		if got := yandexModelURI(tt.folder, tt.model); got != tt.want {
			t.Errorf("yandexModelURI(%q, %q) = %q, want %q", tt.folder, tt.model, got, tt.want)
		}
	}
}

func TestNewYandexRequiresCredentials(t *testing.T) {
	logger := hclog.NewNullLogger()

	cfg := &config.Config{}
	cfg.Oracle.TokenEnv = "RETRIAGE_ORACLE_TOKEN"
	cfg.Oracle.Folder = "b1folder"

	if _, err := NewYandex(cfg, logger); err == nil {
		t.Error("expected an error without an API key")
	} else if !strings.Contains(err.Error(), "RETRIAGE_ORACLE_TOKEN") {
		t.Errorf("error should name the token env var: %v", err)
	}

	cfg = &config.Config{}
	cfg.Oracle.Token = "key"
	if _, err := NewYandex(cfg, logger); err == nil {
		t.Error("expected an error without a folder id")
	}
}

func TestNewYandexDefaultsModel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Oracle.Token = "key"
	cfg.Oracle.Folder = "b1folder"

	y, err := NewYandex(cfg, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("NewYandex: %v", err)
	}
	if y.modelURI != "gpt://b1folder/yandexgpt-lite/latest" {
		t.Errorf("modelURI = %q", y.modelURI)
	}
	if y.Name() != ProviderYandex {
		t.Errorf("Name() = %q", y.Name())
	}
}

// The completion API is case-sensitive about its field names; the request
// must serialize with the exact keys the endpoint expects.
func TestYandexRequestWireFormat(t *testing.T) {
	body, err := json.Marshal(yandexRequest{
		ModelURI: "gpt://f/m",
		CompletionOptions: yandexCompletionOptions{
			Temperature: 0.2,
			MaxTokens:   1200,
		},
		Messages: []yandexMessage{{Role: "system", Text: "s"}, {Role: "user", Text: "u"}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for _, key := range []string{`"modelUri"`, `"completionOptions"`, `"temperature"`, `"maxTokens"`, `"messages"`, `"role"`, `"text"`, `"stream"`} {
		if !strings.Contains(string(body), key) {
			t.Errorf("request body missing %s: %s", key, body)
		}
	}
}

func TestCompletionText(t *testing.T) {
	payload := `{
		"result": {
			"alternatives": [
				{"message": {"role": "assistant", "text": "{\"status\":\"confirmed\"}"}, "status": "ALTERNATIVE_STATUS_FINAL"}
			],
			"usage": {"totalTokens": "42"}
		}
	}`
	var resp yandexResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	text, err := completionText(&resp)
	if err != nil {
		t.Fatalf("completionText: %v", err)
	}
	if text != `{"status":"confirmed"}` {
		t.Errorf("text = %q", text)
	}

	if _, err := completionText(&yandexResponse{}); err == nil {
		t.Error("empty envelope should error")
	}
	if _, err := completionText(nil); err == nil {
		t.Error("nil envelope should error")
	}
}
