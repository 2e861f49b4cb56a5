// Package config handles configuration loading for Crypto Advisor.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Cache     CacheConfig     `mapstructure:"cache"     yaml:"cache"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// ProvidersConfig holds upstream provider settings.
type ProvidersConfig struct {
	// NewsSource selects the news adapter: "cryptopanic" or "rss".
	NewsSource  string            `mapstructure:"news_source" yaml:"news_source"`
	NewsLimit   int               `mapstructure:"news_limit"  yaml:"news_limit"`
	CoinGecko   CoinGeckoConfig   `mapstructure:"coingecko"   yaml:"coingecko"`
	CryptoPanic CryptoPanicConfig `mapstructure:"cryptopanic" yaml:"cryptopanic"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"  yaml:"openrouter"`
	RSSFeeds    []string          `mapstructure:"rss_feeds"   yaml:"rss_feeds"`
}

// CoinGeckoConfig holds CoinGecko price feed settings.
type CoinGeckoConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// CryptoPanicConfig holds CryptoPanic news feed settings.
type CryptoPanicConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	APIKey     string `mapstructure:"api_key"     yaml:"api_key"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// OpenRouterConfig holds AI insight generation settings.
type OpenRouterConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	APIKey     string `mapstructure:"api_key"     yaml:"api_key"`
	Model      string `mapstructure:"model"       yaml:"model"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// CacheConfig holds TTL bands and the size cap of the content cache.
type CacheConfig struct {
	PriceTTLSec   int `mapstructure:"price_ttl_sec"   yaml:"price_ttl_sec"`
	NewsTTLSec    int `mapstructure:"news_ttl_sec"    yaml:"news_ttl_sec"`
	InsightTTLSec int `mapstructure:"insight_ttl_sec" yaml:"insight_ttl_sec"`
	MemeTTLSec    int `mapstructure:"meme_ttl_sec"    yaml:"meme_ttl_sec"`
	MaxEntries    int `mapstructure:"max_entries"     yaml:"max_entries"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// PriceTTL returns the price cache TTL as a duration.
func (c CacheConfig) PriceTTL() time.Duration { return time.Duration(c.PriceTTLSec) * time.Second }

// NewsTTL returns the news cache TTL as a duration.
func (c CacheConfig) NewsTTL() time.Duration { return time.Duration(c.NewsTTLSec) * time.Second }

// InsightTTL returns the AI insight cache TTL as a duration.
func (c CacheConfig) InsightTTL() time.Duration {
	return time.Duration(c.InsightTTLSec) * time.Second
}

// MemeTTL returns the meme cache TTL as a duration.
func (c CacheConfig) MemeTTL() time.Duration { return time.Duration(c.MemeTTLSec) * time.Second }

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.cryptoadvisor/config.yaml (home directory)
//  3. /etc/cryptoadvisor/config.yaml (system)
//
// Environment variables override config file values.
// Format: CRYPTOADVISOR_<SECTION>_<KEY>, e.g. CRYPTOADVISOR_PROVIDERS_CRYPTOPANIC_API_KEY
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".cryptoadvisor"))
	v.AddConfigPath("/etc/cryptoadvisor")

	v.SetEnvPrefix("CRYPTOADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist).
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("CRYPTOADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("providers.news_source", "cryptopanic")
	v.SetDefault("providers.news_limit", 5)
	v.SetDefault("providers.coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("providers.coingecko.timeout_sec", 15)
	v.SetDefault("providers.cryptopanic.base_url", "https://cryptopanic.com/api/v1")
	v.SetDefault("providers.cryptopanic.timeout_sec", 10)
	v.SetDefault("providers.openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("providers.openrouter.model", "openai/gpt-3.5-turbo")
	v.SetDefault("providers.openrouter.timeout_sec", 30)

	// Cache defaults: price band matches CoinGecko's free tier rate limit,
	// insight and meme are effectively per-day.
	v.SetDefault("cache.price_ttl_sec", 60)
	v.SetDefault("cache.news_ttl_sec", 300)
	v.SetDefault("cache.insight_ttl_sec", 86400)
	v.SetDefault("cache.meme_ttl_sec", 86400)
	v.SetDefault("cache.max_entries", 1024)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:4200"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("CRYPTOADVISOR_PROVIDERS_CRYPTOPANIC_API_KEY"); key != "" {
		cfg.Providers.CryptoPanic.APIKey = key
	}
	if key := os.Getenv("CRYPTOADVISOR_PROVIDERS_OPENROUTER_API_KEY"); key != "" {
		cfg.Providers.OpenRouter.APIKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
