// Package coingecko implements the price feed adapter backed by the
// CoinGecko markets API.
//
// Free tier is rate-limited to roughly 10-30 calls/minute, which is why
// price results are cached for 60 seconds upstream of this adapter.
// Docs: https://docs.coingecko.com/reference/coins-markets
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/itayco2/cryptoadvisor/internal/infra"
	"github.com/itayco2/cryptoadvisor/internal/provider"
	"github.com/itayco2/cryptoadvisor/pkg/models"
)

const providerName = "coingecko"

// Fetcher fetches current prices for a set of canonical asset ids.
type Fetcher struct {
	baseURL string
	timeout time.Duration
	ttl     time.Duration
	limiter *infra.RateLimiter
}

// Option configures the fetcher.
type Option func(*Fetcher)

// WithBaseURL overrides the CoinGecko API base URL.
func WithBaseURL(url string) Option {
	return func(f *Fetcher) { f.baseURL = strings.TrimRight(url, "/") }
}

// WithTimeout sets the per-call time budget.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithTTL sets the cache TTL advertised by this fetcher.
func WithTTL(d time.Duration) Option {
	return func(f *Fetcher) { f.ttl = d }
}

// New creates a CoinGecko price fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL: "https://api.coingecko.com/api/v3",
		timeout: 15 * time.Second,
		ttl:     60 * time.Second,
		limiter: infra.NewRateLimiter(10, time.Minute),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) Kind() models.ContentType { return models.ContentPrice }
func (f *Fetcher) Name() string             { return providerName }
func (f *Fetcher) TTL() time.Duration       { return f.ttl }

// Fetch returns current prices for args.AssetIDs in provider order.
// A single attempt is made; any network, status, or parse failure is
// returned as an error so the cache layer can serve a stale entry.
func (f *Fetcher) Fetch(ctx context.Context, args provider.Args) (any, error) {
	ids := provider.NormalizeList(args.AssetIDs)
	if len(ids) == 0 {
		return []models.CoinPrice{}, nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&ids=%s&order=market_cap_desc&per_page=10&page=1",
		f.baseURL, strings.Join(ids, ","))

	body, _, err := infra.DoGet(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("coingecko markets: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("coingecko read response: %w", err)
	}

	var coins []marketEntry
	if err := json.Unmarshal(data, &coins); err != nil {
		return nil, fmt.Errorf("coingecko parse JSON: %w", err)
	}

	prices := make([]models.CoinPrice, 0, len(coins))
	for _, c := range coins {
		prices = append(prices, mapCoinPrice(c))
	}
	return prices, nil
}

func mapCoinPrice(c marketEntry) models.CoinPrice {
	image := c.Image
	if image == "" {
		image = placeholderImage(c.ID)
	}
	return models.CoinPrice{
		ID:                       c.ID,
		Symbol:                   strings.ToUpper(c.Symbol),
		Name:                     c.Name,
		CurrentPrice:             c.CurrentPrice,
		PriceChange24h:           c.PriceChange24h,
		PriceChangePercentage24h: c.PriceChangePercentage24h,
		Image:                    image,
	}
}

// placeholderImage produces a generated avatar for assets without an icon.
func placeholderImage(coinID string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&size=40&background=1a1a1a&color=ffffff", coinID)
}

type marketEntry struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	PriceChange24h           float64 `json:"price_change_24h"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	Image                    string  `json:"image"`
}
