package config

import (
	"crypto/tls"
	"time"
)

// BaseHTTPConfig holds common HTTP client configuration settings.
type BaseHTTPConfig struct {
	RetryCount       int           // Number of retries for failed requests
	RetryWaitTime    time.Duration // Wait time between retries
	RetryMaxWaitTime time.Duration // Maximum wait time for retries
	Timeout          time.Duration // Timeout for requests
	TLSClientConfig  *tls.Config   // TLS configuration
	Proxy            string        // Proxy address
}

// RestyHTTPClientConfig holds additional configuration settings for the Resty HTTP client.
type RestyHTTPClientConfig struct {
	BaseHTTPConfig
	Debug bool // Flag to enable Resty debug mode
}

// DefaultHTTPConfig returns a base configuration for HTTP clients with default values.
func DefaultHTTPConfig() BaseHTTPConfig {
	return BaseHTTPConfig{
		RetryCount:       5,
		RetryWaitTime:    1 * time.Second,
		RetryMaxWaitTime: 5 * time.Second,
		Timeout:          30 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12, // Enforce a minimum TLS version
			InsecureSkipVerify: false,
		},
		Proxy: "",
	}
}

// DefaultRestyConfig returns a default configuration for the Resty HTTP client, extending the base HTTP configuration.
func DefaultRestyConfig() RestyHTTPClientConfig {
	baseConfig := DefaultHTTPConfig()
	return RestyHTTPClientConfig{
		BaseHTTPConfig: baseConfig,
		Debug:          false,
	}
}

// DefaultOracleConfig returns the oracle settings used when the config file
// leaves them out. The endpoint and generation options match the Yandex
// foundation-models completion API this pipeline was built against. Model is
// left empty on purpose: each provider substitutes its own default.
func DefaultOracleConfig() Oracle {
	return Oracle{
		Provider:    "yandex",
		Endpoint:    "https://llm.api.cloud.yandex.net/foundationModels/v1/completion",
		TokenEnv:    "RETRIAGE_ORACLE_TOKEN",
		Timeout:     45 * time.Second,
		Temperature: 0.2,
		MaxTokens:   1200,
		RateLimit: RateLimit{
			RPS:   1,
			Burst: 1,
		},
		Retry: Retry{
			InitialInterval: 1 * time.Second,
			MaxElapsedTime:  2 * time.Minute,
		},
	}
}

// DefaultTriageConfig returns the tuned pipeline thresholds. The values are
// calibration results, not derivations; treat them as a baseline.
func DefaultTriageConfig() Triage {
	return Triage{
		DocsRejectConfidence:   0.95,
		TestRejectConfidence:   0.9,
		VendorRejectConfidence: 0.8,
		FallbackMaxConfidence:  0.3,
		OverrideMinConfidence:  0.8,
		PDFScanWindow:          250,
		SnippetMaxLines:        12,
		ResolverLineScore:      2,
		ContextMaxChars:        6000,
	}
}

// DefaultExportConfig returns the writer defaults: semicolon-separated CSV
// with a UTF-8 BOM, which spreadsheet tools in RU locales open correctly.
func DefaultExportConfig() Export {
	bom := true
	return Export{
		CSVDelimiter: ";",
		UTF8BOM:      &bom,
	}
}
