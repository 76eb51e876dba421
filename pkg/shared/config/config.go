package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the root of the YAML configuration file.
type Config struct {
	Retriage   Retriage   `yaml:"retriage"`
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Oracle     Oracle     `yaml:"oracle"`
	Triage     Triage     `yaml:"triage"`
	Export     Export     `yaml:"export"`
}

// Retriage holds application-level folders and the execution mode.
type Retriage struct {
	HomeFolder    string `yaml:"home_folder"`
	PluginsFolder string `yaml:"plugins_folder"`
	ResultsFolder string `yaml:"results_folder"`
	Mode          string `yaml:"mode"`
}

type Logger struct {
	Level string `yaml:"level"`
}

// HTTPClient holds settings shared by every HTTP-based oracle provider.
type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Oracle configures the judgment provider consulted during triage.
type Oracle struct {
	Provider    string        `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	Folder      string        `yaml:"folder"`
	TokenEnv    string        `yaml:"token_env"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	RateLimit   RateLimit     `yaml:"rate_limit"`
	Retry       Retry         `yaml:"retry"`

	// Token is resolved from the environment variable named by TokenEnv
	// during validation. It never appears in the file itself.
	Token string `yaml:"-"`
}

type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Retry struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxElapsedTime  time.Duration `yaml:"max_elapsed_time"`
}

// Triage holds the tuned thresholds of the pipeline. The defaults replicate the
// values the heuristics were calibrated with; all of them may be overridden.
type Triage struct {
	TestRejectConfidence   float64  `yaml:"test_reject_confidence"`
	DocsRejectConfidence   float64  `yaml:"docs_reject_confidence"`
	VendorRejectConfidence float64  `yaml:"vendor_reject_confidence"`
	FallbackMaxConfidence  float64  `yaml:"fallback_max_confidence"`
	OverrideMinConfidence  float64  `yaml:"override_min_confidence"`
	PDFScanWindow          int      `yaml:"pdf_scan_window"`
	SnippetMaxLines        int      `yaml:"snippet_max_lines"`
	ResolverLineScore      int      `yaml:"resolver_line_score"`
	ContextMaxChars        int      `yaml:"context_max_chars"`
	IndexSkipDirs          []string `yaml:"index_skip_dirs"`
}

// Export configures the result writers.
type Export struct {
	OutputFolder string `yaml:"output_folder"`
	CSVDelimiter string `yaml:"csv_delimiter"`
	UTF8BOM      *bool  `yaml:"utf8_bom"`
}

// ValidateConfigPath checks that the given path points to a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the configuration file at configPath. A missing file is not
// an error: the zero configuration is returned and defaults apply during
// validation, so the tool stays usable without any config at all.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadYAML(configPath, config); err != nil {
		return nil, err
	}

	return config, nil
}

// GetRetriageHome returns the application home folder.
func GetRetriageHome(cfg *Config) string {
	return cfg.Retriage.HomeFolder
}

// GetRetriagePluginsHome returns the folder where oracle plugin binaries live.
func GetRetriagePluginsHome(cfg *Config) string {
	return cfg.Retriage.PluginsFolder
}

// GetRetriageResultsHome returns the default folder for exported results.
func GetRetriageResultsHome(cfg *Config) string {
	if cfg.Export.OutputFolder != "" {
		return cfg.Export.OutputFolder
	}
	return cfg.Retriage.ResultsFolder
}

// GetRepositoryPath builds the expected checkout location for a repository
// under the projects tree.
func GetRepositoryPath(cfg *Config, domain, repo string) string {
	return filepath.Join(GetRetriageHome(cfg), "projects", domain, repo)
}

// IsCI reports whether the tool runs in CI mode (stable artifact names, no
// timestamps in filenames).
func IsCI(cfg *Config) bool {
	return cfg.Retriage.Mode == "CI"
}
