package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/pkg/shared/config"
	"github.com/scanio-labs/retriage/pkg/shared/httpclient"
)

const yandexDefaultModel = "yandexgpt-lite/latest"

// Yandex talks to the foundation-models completion API, the backend this
// pipeline was originally run against.
type Yandex struct {
	logger  hclog.Logger
	client  *resty.Client
	limiter *RateLimiter

	endpoint string
	modelURI string
	apiKey   string
	folder   string

	temperature float64
	maxTokens   int
	retry       config.Retry
}

type yandexMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type yandexCompletionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type yandexRequest struct {
	ModelURI          string                  `json:"modelUri"`
	CompletionOptions yandexCompletionOptions `json:"completionOptions"`
	Messages          []yandexMessage         `json:"messages"`
}

type yandexResponse struct {
	Result struct {
		Alternatives []struct {
			Message yandexMessage `json:"message"`
			Status  string        `json:"status"`
		} `json:"alternatives"`
	} `json:"result"`
}

// NewYandex builds the provider from the oracle configuration. The API key
// and folder id must both be present; without them every call would fail
// with an opaque 401 much later.
func NewYandex(cfg *config.Config, logger hclog.Logger) (*Yandex, error) {
	oracleCfg := cfg.Oracle
	if oracleCfg.Token == "" {
		return nil, fmt.Errorf("yandex oracle: API key is empty, set %s", oracleCfg.TokenEnv)
	}
	if oracleCfg.Folder == "" {
		return nil, fmt.Errorf("yandex oracle: folder id is empty")
	}

	model := oracleCfg.Model
	if model == "" {
		model = yandexDefaultModel
	}

	client := httpclient.InitializeRestyClient(logger, cfg)
	// Retries are driven by backoff below; the transport must not stack a
	// second retry loop on top.
	client.SetRetryCount(0)
	if oracleCfg.Timeout > 0 {
		client.SetTimeout(oracleCfg.Timeout)
	}

	return &Yandex{
		logger:      logger,
		client:      client,
		limiter:     NewRateLimiter(oracleCfg.RateLimit.RPS, oracleCfg.RateLimit.Burst),
		endpoint:    oracleCfg.Endpoint,
		modelURI:    yandexModelURI(oracleCfg.Folder, model),
		apiKey:      oracleCfg.Token,
		folder:      oracleCfg.Folder,
		temperature: oracleCfg.Temperature,
		maxTokens:   oracleCfg.MaxTokens,
		retry:       oracleCfg.Retry,
	}, nil
}

// yandexModelURI builds the gpt:// model reference. A model value that is
// already a full URI passes through untouched.
func yandexModelURI(folder, model string) string {
	if strings.HasPrefix(model, "gpt://") {
		return model
	}
	return fmt.Sprintf("gpt://%s/%s", folder, model)
}

func (y *Yandex) Name() string { return ProviderYandex }

// Judge sends one completion request and returns the raw model text.
// Transport errors and 5xx answers are retried with exponential backoff
// until the configured elapsed budget runs out.
func (y *Yandex) Judge(ctx context.Context, prompt string) (string, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body := yandexRequest{
		ModelURI: y.modelURI,
		CompletionOptions: yandexCompletionOptions{
			Temperature: y.temperature,
			MaxTokens:   y.maxTokens,
		},
		Messages: []yandexMessage{
			{Role: "system", Text: SystemPrompt},
			{Role: "user", Text: prompt},
		},
	}

	var text string
	operation := func() error {
		resp, err := y.client.R().
			SetContext(ctx).
			SetHeader("Authorization", "Api-Key "+y.apiKey).
			SetHeader("x-folder-id", y.folder).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			SetResult(&yandexResponse{}).
			Post(y.endpoint)
		if err != nil {
			return fmt.Errorf("completion request failed: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("completion returned %s: %s", resp.Status(), resp.String())
		}

		text, err = completionText(resp.Result().(*yandexResponse))
		if err != nil {
			// A well-formed 200 without alternatives will not improve on
			// retry.
			return backoff.Permanent(err)
		}
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	if y.retry.InitialInterval > 0 {
		expBackoff.InitialInterval = y.retry.InitialInterval
	}
	if y.retry.MaxElapsedTime > 0 {
		expBackoff.MaxElapsedTime = y.retry.MaxElapsedTime
	}

	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return "", fmt.Errorf("yandex oracle: %w", err)
	}

	y.logger.Debug("completion received", "chars", len(text))
	return text, nil
}

// completionText digs the answer out of the response envelope. The expected
// location is result.alternatives[0].message.text.
func completionText(resp *yandexResponse) (string, error) {
	if resp == nil || len(resp.Result.Alternatives) == 0 {
		return "", fmt.Errorf("completion response carries no alternatives")
	}
	return resp.Result.Alternatives[0].Message.Text, nil
}
