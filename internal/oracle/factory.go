package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/pkg/shared/config"
)

// Built-in provider names. The plugin: prefix resolves any other name to an
// external binary in the plugins folder; openai is an alias for the plugin
// binary shipped with this repository.
const (
	ProviderYandex = "yandex"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	pluginPrefix = "plugin:"
)

// NewProvider resolves the configured provider name. Unknown names fail
// here, at startup, not on the first judged finding.
func NewProvider(ctx context.Context, cfg *config.Config, logger hclog.Logger) (Provider, error) {
	name := strings.TrimSpace(cfg.Oracle.Provider)
	switch {
	case name == "" || name == ProviderYandex:
		return NewYandex(cfg, logger)
	case name == ProviderGemini:
		return NewGemini(ctx, cfg, logger)
	case name == ProviderOpenAI:
		return NewPlugin(cfg, ProviderOpenAI, logger), nil
	case strings.HasPrefix(name, pluginPrefix):
		return NewPlugin(cfg, strings.TrimPrefix(name, pluginPrefix), logger), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s", name)
	}
}
