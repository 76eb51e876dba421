package shared

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-plugin"
	"github.com/spf13/pflag"

	"github.com/scanio-labs/retriage/pkg/shared/config"
	"github.com/scanio-labs/retriage/pkg/shared/logger"
)

const (
	PluginTypeOracle string = "oracle"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "RETRIAGE",
	MagicCookieValue: "5b1e48c2a969d0778f1f87d2ee94f2a3d5c60b9e",
}

var PluginMap = map[string]plugin.Plugin{
	PluginTypeOracle: &OraclePlugin{},
}

// HasFlags reports whether any flag on the set was changed by the user.
func HasFlags(flags *pflag.FlagSet) bool {
	return flags.NFlag() > 0
}

func getRetriagePluginsFolder(cfg *config.Config) string {
	if folder := config.GetRetriagePluginsHome(cfg); folder != "" {
		return folder
	}
	if envFolder := os.Getenv("RETRIAGE_PLUGINS_FOLDER"); envFolder != "" {
		return envFolder
	}
	home, err := os.UserHomeDir()
	if err != nil {
		panic("unable to get home folder")
	}
	return filepath.Join(home, ".retriage", "plugins")
}

// WithPlugin starts the named plugin binary, dispenses the requested plugin
// type and hands the raw implementation to f. The plugin process is killed
// when f returns.
func WithPlugin(cfg *config.Config, loggerName string, pluginType string, pluginName string, f func(interface{}) error) error {
	logger := logger.NewLogger(cfg, loggerName)

	pluginPath := filepath.Join(getRetriagePluginsFolder(cfg), pluginName)
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap,
		Cmd:             exec.Command(pluginPath),
		Logger:          logger,
	})
	defer client.Kill()

	rpcClient, err := client.Client()
	if err != nil {
		return fmt.Errorf("failed to start plugin %q: %w", pluginName, err)
	}

	// Request the plugin
	raw, err := rpcClient.Dispense(pluginType)
	if err != nil {
		return fmt.Errorf("failed to dispense plugin %q: %w", pluginName, err)
	}

	if err := f(raw); err != nil {
		return err
	}

	return nil
}

func ForEveryStringWithBoundedGoroutines(limit int, values []interface{}, f func(i int, value interface{})) {
	guard := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, value := range values {
		guard <- struct{}{} // would block if guard channel is already filled
		wg.Add(1)
		go func(i int, value interface{}) {
			defer wg.Done()
			f(i, value)
			<-guard
		}(i, value)
	}
	wg.Wait()
}
