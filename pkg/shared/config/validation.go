package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scanio-labs/retriage/pkg/shared/files"
)

// ValidateConfig checks the loaded configuration, applies defaults for unset
// directives and resolves environment overrides.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateRetriageConfig(cfg); err != nil {
		return fmt.Errorf("YAML global config: retriage directive is invalid: %w", err)
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateOracleConfig(&cfg.Oracle); err != nil {
		return fmt.Errorf("YAML global config: oracle directive is invalid: %w", err)
	}
	if err := ValidateTriageConfig(&cfg.Triage); err != nil {
		return fmt.Errorf("YAML global config: triage directive is invalid: %w", err)
	}
	applyExportDefaults(&cfg.Export)
	return nil
}

// ValidateRetriageConfig resolves the application folders from the config file
// or environment variables and makes sure they exist.
func ValidateRetriageConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("retriage configuration is nil")
	}
	if err := updateHome(cfg); err != nil {
		return fmt.Errorf("failed to update home folder: %w", err)
	}
	if err := updateFolder(&cfg.Retriage.PluginsFolder, "RETRIAGE_PLUGINS_FOLDER", "plugins", cfg); err != nil {
		return fmt.Errorf("failed to update plugins folder: %w", err)
	}
	if err := updateFolder(&cfg.Retriage.ResultsFolder, "RETRIAGE_RESULTS_FOLDER", "results", cfg); err != nil {
		return fmt.Errorf("failed to update results folder: %w", err)
	}
	updateMode(cfg)

	return nil
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}

	if err := validateProxy(&httpConfig.Proxy); err != nil {
		return err
	}

	return nil
}

// ValidateOracleConfig applies defaults to unset oracle directives and resolves
// the API token from the configured environment variable. An absent token is
// not an error here: offline runs never need one, and online commands check it
// during their own validation.
func ValidateOracleConfig(oracleConfig *Oracle) error {
	if oracleConfig == nil {
		return fmt.Errorf("oracle configuration is nil")
	}

	defaults := DefaultOracleConfig()
	oracleConfig.Provider = SetThen(oracleConfig.Provider, defaults.Provider)
	oracleConfig.Endpoint = SetThen(oracleConfig.Endpoint, defaults.Endpoint)
	oracleConfig.TokenEnv = SetThen(oracleConfig.TokenEnv, defaults.TokenEnv)
	oracleConfig.Timeout = SetThen(oracleConfig.Timeout, defaults.Timeout)
	oracleConfig.Temperature = SetThen(oracleConfig.Temperature, defaults.Temperature)
	oracleConfig.MaxTokens = SetThen(oracleConfig.MaxTokens, defaults.MaxTokens)
	oracleConfig.RateLimit.RPS = SetThen(oracleConfig.RateLimit.RPS, defaults.RateLimit.RPS)
	oracleConfig.RateLimit.Burst = SetThen(oracleConfig.RateLimit.Burst, defaults.RateLimit.Burst)
	oracleConfig.Retry.InitialInterval = SetThen(oracleConfig.Retry.InitialInterval, defaults.Retry.InitialInterval)
	oracleConfig.Retry.MaxElapsedTime = SetThen(oracleConfig.Retry.MaxElapsedTime, defaults.Retry.MaxElapsedTime)

	if err := validateDuration(oracleConfig.Timeout, "Timeout", 10*time.Minute); err != nil {
		return err
	}
	if oracleConfig.Temperature < 0 || oracleConfig.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2: %v", oracleConfig.Temperature)
	}
	if oracleConfig.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive: %d", oracleConfig.MaxTokens)
	}

	oracleConfig.Token = os.Getenv(oracleConfig.TokenEnv)
	return nil
}

// ValidateTriageConfig applies defaults to unset triage thresholds and rejects
// values outside their meaningful ranges.
func ValidateTriageConfig(triageConfig *Triage) error {
	if triageConfig == nil {
		return fmt.Errorf("triage configuration is nil")
	}

	defaults := DefaultTriageConfig()
	triageConfig.TestRejectConfidence = SetThen(triageConfig.TestRejectConfidence, defaults.TestRejectConfidence)
	triageConfig.DocsRejectConfidence = SetThen(triageConfig.DocsRejectConfidence, defaults.DocsRejectConfidence)
	triageConfig.VendorRejectConfidence = SetThen(triageConfig.VendorRejectConfidence, defaults.VendorRejectConfidence)
	triageConfig.FallbackMaxConfidence = SetThen(triageConfig.FallbackMaxConfidence, defaults.FallbackMaxConfidence)
	triageConfig.OverrideMinConfidence = SetThen(triageConfig.OverrideMinConfidence, defaults.OverrideMinConfidence)
	triageConfig.PDFScanWindow = SetThen(triageConfig.PDFScanWindow, defaults.PDFScanWindow)
	triageConfig.SnippetMaxLines = SetThen(triageConfig.SnippetMaxLines, defaults.SnippetMaxLines)
	triageConfig.ResolverLineScore = SetThen(triageConfig.ResolverLineScore, defaults.ResolverLineScore)
	triageConfig.ContextMaxChars = SetThen(triageConfig.ContextMaxChars, defaults.ContextMaxChars)

	confidences := map[string]float64{
		"test_reject_confidence":   triageConfig.TestRejectConfidence,
		"docs_reject_confidence":   triageConfig.DocsRejectConfidence,
		"vendor_reject_confidence": triageConfig.VendorRejectConfidence,
		"fallback_max_confidence":  triageConfig.FallbackMaxConfidence,
		"override_min_confidence":  triageConfig.OverrideMinConfidence,
	}
	for name, c := range confidences {
		if c < 0 || c > 1 {
			return fmt.Errorf("%s must be between 0 and 1: %v", name, c)
		}
	}
	if triageConfig.PDFScanWindow < 1 {
		return fmt.Errorf("pdf_scan_window must be positive: %d", triageConfig.PDFScanWindow)
	}
	if triageConfig.SnippetMaxLines < 1 {
		return fmt.Errorf("snippet_max_lines must be positive: %d", triageConfig.SnippetMaxLines)
	}
	return nil
}

func applyExportDefaults(exportConfig *Export) {
	defaults := DefaultExportConfig()
	exportConfig.CSVDelimiter = SetThen(exportConfig.CSVDelimiter, defaults.CSVDelimiter)
	if exportConfig.UTF8BOM == nil {
		exportConfig.UTF8BOM = defaults.UTF8BOM
	}
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %q: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%q duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	// If host or port is not set, skip further validation
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if err := validateHost(&proxy.Host); err != nil {
		return err
	}

	if err := validatePort(proxy.Port); err != nil {
		return err
	}

	return nil
}

// validateHost checks if the host part of the proxy configuration is valid.
// It ensures the host includes a scheme; adds "http" if missing.
func validateHost(host *string) error {
	if host == nil {
		return fmt.Errorf("host string pointer is nil")
	}

	if !strings.Contains(*host, "://") {
		*host = "http://" + *host
	}
	*host = strings.TrimRight(*host, "/")

	_, err := url.Parse(*host)
	if err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}

	return nil
}

// validatePort checks if the port part of the proxy configuration is valid.
func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// updateHome updates the HomeFolder in the Retriage config from environment variables or sets a default value.
func updateHome(cfg *Config) error {
	if homeFolder := os.Getenv("RETRIAGE_HOME"); homeFolder != "" {
		cfg.Retriage.HomeFolder = homeFolder
	} else if cfg.Retriage.HomeFolder == "" {
		homeFolder, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("unable to get user home folder: %w", err)
		}
		cfg.Retriage.HomeFolder = filepath.Join(homeFolder, ".retriage")
	}

	expandedHomePath, err := files.ExpandPath(cfg.Retriage.HomeFolder)
	if err != nil {
		return fmt.Errorf("failed to expand new home path %q: %w", cfg.Retriage.HomeFolder, err)
	}
	cfg.Retriage.HomeFolder = expandedHomePath

	if err := files.CreateFolderIfNotExists(expandedHomePath); err != nil {
		return fmt.Errorf("failed to create home folder %q: %w", cfg.Retriage.HomeFolder, err)
	}
	return nil
}

// updateFolder updates a folder path in the Retriage configuration.
func updateFolder(folder *string, envVar, defaultSubFolder string, cfg *Config) error {
	if envVarValue := os.Getenv(envVar); envVarValue != "" {
		*folder = envVarValue
	} else if *folder == "" {
		*folder = filepath.Join(GetRetriageHome(cfg), defaultSubFolder)
	}

	expandedHomePath, err := files.ExpandPath(*folder)
	if err != nil {
		return fmt.Errorf("failed to expand new home path %q: %w", *folder, err)
	}
	*folder = expandedHomePath

	if err := files.CreateFolderIfNotExists(expandedHomePath); err != nil {
		return fmt.Errorf("failed to create folder %q: %w", expandedHomePath, err)
	}
	return nil
}

// updateMode updates the Mode field in the Retriage configuration based on environment variables.
func updateMode(cfg *Config) {
	if os.Getenv("RETRIAGE_MODE") == "CI" || os.Getenv("CI") == "true" {
		cfg.Retriage.Mode = "CI"
		return
	}

	if envVarValue := os.Getenv("RETRIAGE_MODE"); envVarValue != "" {
		cfg.Retriage.Mode = envVarValue
		return
	}

	cfg.Retriage.Mode = "user"
}
