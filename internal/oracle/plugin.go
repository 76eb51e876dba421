package oracle

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scanio-labs/retriage/pkg/shared"
	"github.com/scanio-labs/retriage/pkg/shared/config"
	"github.com/scanio-labs/retriage/pkg/shared/errors"
)

// Plugin runs judgments through an external provider binary speaking the
// go-plugin oracle protocol. The binary is started fresh for every call and
// killed afterwards, which keeps a misbehaving provider from wedging a
// whole batch.
type Plugin struct {
	logger hclog.Logger
	cfg    *config.Config
	binary string
}

func NewPlugin(cfg *config.Config, binary string, logger hclog.Logger) *Plugin {
	return &Plugin{logger: logger, cfg: cfg, binary: binary}
}

func (p *Plugin) Name() string { return pluginPrefix + p.binary }

func (p *Plugin) Judge(ctx context.Context, prompt string) (string, error) {
	// net/rpc carries no context; honor cancellation at the call boundary
	// at least.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var text string
	err := shared.WithPlugin(p.cfg, "plugin."+p.binary, shared.PluginTypeOracle, p.binary, func(raw interface{}) error {
		provider, ok := raw.(shared.Oracle)
		if !ok {
			return errors.NewNotImplementedError("Judge", p.binary)
		}
		if _, err := provider.Setup(*p.cfg); err != nil {
			return fmt.Errorf("plugin %q setup failed: %w", p.binary, err)
		}

		resp, err := provider.Judge(shared.OracleJudgeRequest{
			Prompt: SystemPrompt + "\n\n" + prompt,
			Model:  p.cfg.Oracle.Model,
		})
		if err != nil {
			return fmt.Errorf("plugin %q judge failed: %w", p.binary, err)
		}
		text = resp.Text
		return nil
	})
	return text, err
}
