package version

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scanio-labs/retriage/pkg/shared/config"
)

var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// BuildInfo holds the version information of the core binary.
type BuildInfo struct {
	Version       string `json:"version"`
	GolangVersion string `json:"golang_version"`
	BuildTime     string `json:"build_time"`
}

// PluginMeta holds version information for an oracle plugin binary.
type PluginMeta struct {
	Version    string `json:"version"`
	PluginType string `json:"plugin_type"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application and oracle plugins",
		Run: func(cmd *cobra.Command, args []string) {
			info := BuildInfo{
				Version:       CoreVersion,
				GolangVersion: GolangVersion,
				BuildTime:     BuildTime,
			}
			printVersionInfo(info, getPluginVersions(config.GetRetriagePluginsHome(AppConfig)))
		},
	}
}

// readVersionFile reads and parses the version file as JSON.
func readVersionFile(versionFilePath string) PluginMeta {
	var pm PluginMeta
	data, err := os.ReadFile(versionFilePath)
	if err != nil {
		return PluginMeta{Version: "unknown", PluginType: "unknown"}
	}
	if err := json.Unmarshal(data, &pm); err != nil {
		return PluginMeta{Version: "unknown", PluginType: "unknown"}
	}
	return pm
}

// getPluginVersions iterates through the plugin directories and reads their version files.
func getPluginVersions(pluginsDir string) map[string]PluginMeta {
	pluginsMeta := make(map[string]PluginMeta)
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		return pluginsMeta
	}
	for _, entry := range entries {
		if entry.IsDir() {
			versionFilePath := filepath.Join(pluginsDir, entry.Name(), "VERSION")
			pluginsMeta[entry.Name()] = readVersionFile(versionFilePath)
		}
	}
	return pluginsMeta
}

// printVersionInfo prints the version information for the core application and plugins.
func printVersionInfo(info BuildInfo, pluginsMeta map[string]PluginMeta) {
	fmt.Printf("Core Version: v%s\n", info.Version)
	if len(pluginsMeta) > 0 {
		fmt.Println("Plugin Versions:")
		for plugin, meta := range pluginsMeta {
			fmt.Printf("  %s: v%s (Type: %s)\n", plugin, meta.Version, meta.PluginType)
		}
	}
	fmt.Printf("Go Version: %s\n", info.GolangVersion)
	fmt.Printf("Build Time: %s\n", info.BuildTime)
}
