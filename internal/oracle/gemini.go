package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/hashicorp/go-hclog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/scanio-labs/retriage/pkg/shared/config"
)

const geminiDefaultModel = "gemini-pro"

// Gemini runs judgments through the generative-ai SDK. The SDK has no
// system role on the completion call used here, so the contract is
// prepended to the user prompt.
type Gemini struct {
	logger hclog.Logger
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGemini(ctx context.Context, cfg *config.Config, logger hclog.Logger) (*Gemini, error) {
	oracleCfg := cfg.Oracle
	if oracleCfg.Token == "" {
		return nil, fmt.Errorf("gemini oracle: API key is empty, set %s", oracleCfg.TokenEnv)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(oracleCfg.Token))
	if err != nil {
		return nil, fmt.Errorf("gemini oracle: %w", err)
	}

	modelName := oracleCfg.Model
	if modelName == "" {
		modelName = geminiDefaultModel
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(float32(oracleCfg.Temperature))

	return &Gemini{logger: logger, client: client, model: model}, nil
}

func (g *Gemini) Name() string { return ProviderGemini }

func (g *Gemini) Judge(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(SystemPrompt+"\n\n"+prompt))
	if err != nil {
		return "", fmt.Errorf("gemini oracle: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini oracle: no response candidates")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("gemini oracle: response carries no text parts")
	}
	return out.String(), nil
}

// ListModels returns the generation-capable model names available to the
// configured key, with the "models/" prefix stripped.
func (g *Gemini) ListModels(ctx context.Context) ([]string, error) {
	iter := g.client.ListModels(ctx)
	var names []string
	for {
		m, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.Contains(m.Name, "gemini") {
			names = append(names, strings.TrimPrefix(m.Name, "models/"))
		}
	}
	return names, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
