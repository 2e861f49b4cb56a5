// Package providers wires the concrete content adapters into a provider
// registry according to configuration.
package providers

import (
	"time"

	"github.com/itayco2/cryptoadvisor/internal/config"
	"github.com/itayco2/cryptoadvisor/internal/provider"
	"github.com/itayco2/cryptoadvisor/internal/providers/coingecko"
	"github.com/itayco2/cryptoadvisor/internal/providers/cryptopanic"
	"github.com/itayco2/cryptoadvisor/internal/providers/memes"
	"github.com/itayco2/cryptoadvisor/internal/providers/openrouter"
	"github.com/itayco2/cryptoadvisor/internal/providers/rssnews"
)

// BuildRegistry creates the registry of content fetchers from cfg. The
// news kind is served by CryptoPanic unless the config selects the RSS
// source; the other kinds each have a single adapter.
func BuildRegistry(cfg *config.Config) *provider.Registry {
	reg := provider.NewRegistry()

	reg.Register(coingecko.New(
		coingecko.WithBaseURL(cfg.Providers.CoinGecko.BaseURL),
		coingecko.WithTimeout(time.Duration(cfg.Providers.CoinGecko.TimeoutSec)*time.Second),
		coingecko.WithTTL(cfg.Cache.PriceTTL()),
	))

	switch cfg.Providers.NewsSource {
	case "rss":
		feeds := make([]rssnews.Feed, 0, len(cfg.Providers.RSSFeeds))
		for _, u := range cfg.Providers.RSSFeeds {
			feeds = append(feeds, rssnews.Feed{Name: u, URL: u})
		}
		reg.Register(rssnews.New(
			rssnews.WithFeeds(feeds),
			rssnews.WithTTL(cfg.Cache.NewsTTL()),
		))
	default:
		reg.Register(cryptopanic.New(cfg.Providers.CryptoPanic.APIKey,
			cryptopanic.WithBaseURL(cfg.Providers.CryptoPanic.BaseURL),
			cryptopanic.WithTimeout(time.Duration(cfg.Providers.CryptoPanic.TimeoutSec)*time.Second),
			cryptopanic.WithTTL(cfg.Cache.NewsTTL()),
		))
	}

	reg.Register(openrouter.New(cfg.Providers.OpenRouter.APIKey,
		openrouter.WithBaseURL(cfg.Providers.OpenRouter.BaseURL),
		openrouter.WithModel(cfg.Providers.OpenRouter.Model),
		openrouter.WithTimeout(time.Duration(cfg.Providers.OpenRouter.TimeoutSec)*time.Second),
		openrouter.WithTTL(cfg.Cache.InsightTTL()),
	))

	reg.Register(memes.New(
		memes.WithTTL(cfg.Cache.MemeTTL()),
	))

	return reg
}
