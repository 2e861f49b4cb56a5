package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Providers.NewsSource != "cryptopanic" {
		t.Errorf("news source: %q", cfg.Providers.NewsSource)
	}
	if cfg.Providers.NewsLimit != 5 {
		t.Errorf("news limit: %d", cfg.Providers.NewsLimit)
	}
	if cfg.Providers.CoinGecko.BaseURL != "https://api.coingecko.com/api/v3" {
		t.Errorf("coingecko base url: %q", cfg.Providers.CoinGecko.BaseURL)
	}
	if cfg.Providers.OpenRouter.Model != "openai/gpt-3.5-turbo" {
		t.Errorf("openrouter model: %q", cfg.Providers.OpenRouter.Model)
	}

	if got := cfg.Cache.PriceTTL(); got != 60*time.Second {
		t.Errorf("price ttl: %s", got)
	}
	if got := cfg.Cache.NewsTTL(); got != 5*time.Minute {
		t.Errorf("news ttl: %s", got)
	}
	if got := cfg.Cache.InsightTTL(); got != 24*time.Hour {
		t.Errorf("insight ttl: %s", got)
	}
	if cfg.Cache.MaxEntries != 1024 {
		t.Errorf("max entries: %d", cfg.Cache.MaxEntries)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("port: %d", cfg.API.Port)
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "http://localhost:4200" {
		t.Errorf("cors origins: %v", cfg.API.CORSOrigins)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level: %q", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
providers:
  news_source: rss
  news_limit: 10
  rss_feeds:
    - https://example.com/feed.xml
cache:
  price_ttl_sec: 30
api:
  port: 9090
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}

	if cfg.Providers.NewsSource != "rss" {
		t.Errorf("news source: %q", cfg.Providers.NewsSource)
	}
	if cfg.Providers.NewsLimit != 10 {
		t.Errorf("news limit: %d", cfg.Providers.NewsLimit)
	}
	if len(cfg.Providers.RSSFeeds) != 1 {
		t.Errorf("rss feeds: %v", cfg.Providers.RSSFeeds)
	}
	if got := cfg.Cache.PriceTTL(); got != 30*time.Second {
		t.Errorf("price ttl: %s", got)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("port: %d", cfg.API.Port)
	}

	// Unset keys keep their defaults.
	if got := cfg.Cache.NewsTTL(); got != 5*time.Minute {
		t.Errorf("news ttl should default: %s", got)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverridesAPIKeys(t *testing.T) {
	t.Setenv("CRYPTOADVISOR_PROVIDERS_CRYPTOPANIC_API_KEY", "cp-secret")
	t.Setenv("CRYPTOADVISOR_PROVIDERS_OPENROUTER_API_KEY", "or-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Providers.CryptoPanic.APIKey != "cp-secret" {
		t.Errorf("cryptopanic key: %q", cfg.Providers.CryptoPanic.APIKey)
	}
	if cfg.Providers.OpenRouter.APIKey != "or-secret" {
		t.Errorf("openrouter key: %q", cfg.Providers.OpenRouter.APIKey)
	}
}
