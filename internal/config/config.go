// Package config centralizes viper-backed configuration and the provider
// credential surface. Environment variable names are ABI and must not change.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Credential environment variables (ABI).
const (
	EnvTextLLMKey         = "TEXT_LLM_API_KEY"
	EnvImageLLMKey        = "IMAGE_LLM_API_KEY"
	EnvSerpImagesPrimary  = "SERP_IMAGES_PRIMARY_KEY"
	EnvSerpSecondaryLogin = "SERP_SECONDARY_LOGIN"
	EnvSerpSecondaryPass  = "SERP_SECONDARY_PASSWORD"
)

// Init loads the optional config file and registers defaults. A missing
// config file is not an error; env and defaults still apply.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".wordsmith")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func setDefaults() {
	// Orchestrator budgets.
	viper.SetDefault("batch.max_parallel", 4)
	viper.SetDefault("batch.article_timeout", "10m")
	viper.SetDefault("batch.timeout", "60m")
	viper.SetDefault("batch.cancel_grace", "30s")

	// Provider timeouts.
	viper.SetDefault("llm.model", "gemini-2.5-flash")
	viper.SetDefault("llm.grounded_timeout", "90s")
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("image.timeout", "60s")
	viper.SetDefault("serp.request_timeout", "30s")
	viper.SetDefault("serp.poll_timeout", "10s")
	// Image SERP fallback order; earlier entries are tried first.
	viper.SetDefault("serp.image_providers", []string{"serpapi", "taskserp"})

	// Sitemap crawl limits.
	viper.SetDefault("sitemap.max_urls", 2000)
	viper.SetDefault("sitemap.max_depth", 3)
	viper.SetDefault("sitemap.budget", "60s")
	viper.SetDefault("sitemap.cache_ttl", "5m")
	viper.SetDefault("sitemap.ai_classifier", false)

	// Asset finder.
	viper.SetDefault("assets.max_results", 8)
	viper.SetDefault("assets.per_domain", 2)
	viper.SetDefault("assets.recreate_in_brand_style", false)

	// Quality checker.
	viper.SetDefault("quality.forbid_dashes", true)

	// Citations the post-processor must never drop, even when unreferenced.
	viper.SetDefault("citations.pinned_urls", []string{})
}

// Duration reads a duration-typed config key.
func Duration(key string) time.Duration {
	return viper.GetDuration(key)
}

// String reads a string-typed config key.
func String(key string) string { return viper.GetString(key) }

// Int reads an int-typed config key.
func Int(key string) int { return viper.GetInt(key) }

// Bool reads a bool-typed config key.
func Bool(key string) bool { return viper.GetBool(key) }

// Strings reads a string-slice config key.
func Strings(key string) []string { return viper.GetStringSlice(key) }

// TextLLMKey returns the grounded text LLM credential.
func TextLLMKey() string { return os.Getenv(EnvTextLLMKey) }

// ImageLLMKey returns the image LLM credential.
func ImageLLMKey() string { return os.Getenv(EnvImageLLMKey) }

// SerpImagesPrimaryKey returns the single-request image SERP credential.
func SerpImagesPrimaryKey() string { return os.Getenv(EnvSerpImagesPrimary) }

// SerpSecondaryCredentials returns the Basic-auth pair for the task-poll
// SERP backend.
func SerpSecondaryCredentials() (login, password string) {
	return os.Getenv(EnvSerpSecondaryLogin), os.Getenv(EnvSerpSecondaryPass)
}
