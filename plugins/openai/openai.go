package main

import (
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/scanio-labs/retriage/pkg/shared"
	"github.com/scanio-labs/retriage/pkg/shared/config"
	"github.com/scanio-labs/retriage/pkg/shared/httpclient"
)

// Metadata of the plugin
var (
	Version       = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultModel    = "gpt-4o-mini"
)

// OracleOpenAI judges findings through any endpoint speaking the OpenAI
// chat-completions dialect, which covers the hosted API as well as local
// inference servers.
type OracleOpenAI struct {
	logger       hclog.Logger
	globalConfig *config.Config
	client       *resty.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// newOracleOpenAI creates a new instance of OracleOpenAI.
func newOracleOpenAI(logger hclog.Logger) *OracleOpenAI {
	return &OracleOpenAI{
		logger: logger,
	}
}

// setGlobalConfig sets the global configuration for the OracleOpenAI instance.
func (g *OracleOpenAI) setGlobalConfig(globalConfig *config.Config) {
	g.globalConfig = globalConfig
}

// Setup initializes the global configuration and the HTTP client for the
// OracleOpenAI instance.
func (g *OracleOpenAI) Setup(configData config.Config) (bool, error) {
	g.setGlobalConfig(&configData)

	client := httpclient.InitializeRestyClient(g.logger, g.globalConfig)
	if configData.Oracle.Timeout > 0 {
		client.SetTimeout(configData.Oracle.Timeout)
	}
	g.client = client
	return true, nil
}

// endpoint returns the completions URL from the configuration, falling back
// to the hosted API.
func (g *OracleOpenAI) endpoint() string {
	if g.globalConfig != nil && g.globalConfig.Oracle.Endpoint != "" {
		return g.globalConfig.Oracle.Endpoint
	}
	return defaultEndpoint
}

// apiKey resolves the bearer token. The host passes the resolved token in
// the configuration; the environment is the fallback since the plugin
// process inherits it.
func (g *OracleOpenAI) apiKey() string {
	if g.globalConfig != nil && g.globalConfig.Oracle.Token != "" {
		return g.globalConfig.Oracle.Token
	}
	tokenEnv := config.DefaultOracleConfig().TokenEnv
	if g.globalConfig != nil && g.globalConfig.Oracle.TokenEnv != "" {
		tokenEnv = g.globalConfig.Oracle.TokenEnv
	}
	return os.Getenv(tokenEnv)
}

// Judge sends one chat completion and returns the raw model text.
func (g *OracleOpenAI) Judge(args shared.OracleJudgeRequest) (shared.OracleJudgeResponse, error) {
	var result shared.OracleJudgeResponse
	g.logger.Info("judgment is starting", "model", args.Model)
	g.logger.Debug("debug info", "prompt_chars", len(args.Prompt))

	if err := g.validateJudge(&args); err != nil {
		g.logger.Error("validation failed for judge operation", "error", err)
		return result, err
	}

	model := args.Model
	if model == "" {
		model = defaultModel
	}

	body := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: args.Prompt},
		},
	}
	if g.globalConfig != nil {
		body.Temperature = g.globalConfig.Oracle.Temperature
		body.MaxTokens = g.globalConfig.Oracle.MaxTokens
	}

	req := g.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&chatResponse{})
	if key := g.apiKey(); key != "" {
		req.SetHeader("Authorization", "Bearer "+key)
	}

	resp, err := req.Post(g.endpoint())
	if err != nil {
		g.logger.Error("completion request failed", "error", err)
		return result, fmt.Errorf("completion request failed: %w", err)
	}
	if resp.IsError() {
		g.logger.Error("completion returned an error status", "status", resp.Status())
		return result, fmt.Errorf("completion returned %s: %s", resp.Status(), resp.String())
	}

	parsed := resp.Result().(*chatResponse)
	if parsed.Error != nil {
		return result, fmt.Errorf("completion refused: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return result, fmt.Errorf("completion response carries no choices")
	}

	result.Text = parsed.Choices[0].Message.Content
	g.logger.Info("judgment finished", "model", model, "chars", len(result.Text))
	return result, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Level:      hclog.Trace,
		Output:     os.Stderr,
		JSONFormat: true,
	})

	openaiInstance := newOracleOpenAI(logger)

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: shared.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			shared.PluginTypeOracle: &shared.OraclePlugin{Impl: openaiInstance},
		},
		Logger: logger,
	})
}
