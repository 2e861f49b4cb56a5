// Package dashboard assembles the per-user dashboard payload. It fans
// out to the content providers implied by the user's preferences, routes
// every call through the shared resilient cache, merges stored feedback,
// and joins the branches into one response. A failing branch degrades to
// an empty list or nil singleton for its category only; the aggregate
// call itself fails only on caller bugs, never on upstream faults.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/itayco2/cryptoadvisor/internal/cache"
	"github.com/itayco2/cryptoadvisor/internal/feedback"
	"github.com/itayco2/cryptoadvisor/internal/personalize"
	"github.com/itayco2/cryptoadvisor/internal/provider"
	"github.com/itayco2/cryptoadvisor/pkg/models"
)

// ErrNoUser is returned when Aggregate is called without a user id.
// This is the only hard failure the aggregator reports; it indicates a
// caller bug, not an environment fault.
var ErrNoUser = errors.New("dashboard: empty user id")

// DefaultNewsLimit caps the news branch when no limit is configured.
const DefaultNewsLimit = 5

// DefaultBranchTimeout bounds each provider branch so one hung upstream
// cannot stall the join past a known budget.
const DefaultBranchTimeout = 30 * time.Second

// Aggregator orchestrates the provider fan-out for dashboard requests.
type Aggregator struct {
	registry      *provider.Registry
	cache         *cache.Cache
	newsLimit     int
	branchTimeout time.Duration
}

// Option configures the aggregator.
type Option func(*Aggregator)

// WithNewsLimit sets the maximum number of news items per response.
func WithNewsLimit(limit int) Option {
	return func(a *Aggregator) {
		if limit > 0 {
			a.newsLimit = limit
		}
	}
}

// WithBranchTimeout sets the per-branch time budget.
func WithBranchTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.branchTimeout = d
		}
	}
}

// New creates an aggregator over the given provider registry and cache.
func New(registry *provider.Registry, c *cache.Cache, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry:      registry,
		cache:         c,
		newsLimit:     DefaultNewsLimit,
		branchTimeout: DefaultBranchTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate builds the dashboard for one user. prefs may be nil
// (onboarding not completed); fbSet may be empty. All enabled branches
// run concurrently and the call returns once every branch has either
// produced a value or settled into its fallback. Branch ordering within
// a category follows provider order; there is no ordering across
// categories.
func (a *Aggregator) Aggregate(ctx context.Context, userID string, prefs *models.Preferences, fbSet feedback.Set) (*models.DashboardResponse, error) {
	if userID == "" {
		return nil, ErrNoUser
	}

	resolved := personalize.Resolve(prefs)

	resp := &models.DashboardResponse{
		News:   []models.NewsItem{},
		Prices: []models.CoinPrice{},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	if resolved.Enabled(models.ContentNews) {
		g.Go(func() error {
			items := a.fetchNews(gctx, resolved)
			mu.Lock()
			resp.News = feedback.MergeNews(items, fbSet)
			mu.Unlock()
			return nil // non-fatal
		})
	}

	if resolved.Enabled(models.ContentPrice) {
		g.Go(func() error {
			prices := a.fetchPrices(gctx, resolved)
			mu.Lock()
			resp.Prices = feedback.MergePrices(prices, fbSet)
			mu.Unlock()
			return nil
		})
	}

	// The AI insight branch is unconditional: it runs for every user
	// regardless of enabled content types.
	g.Go(func() error {
		insight := a.fetchInsight(gctx, resolved)
		mu.Lock()
		resp.AiInsight = feedback.MergeInsight(insight, fbSet)
		mu.Unlock()
		return nil
	})

	if resolved.Enabled(models.ContentMeme) {
		g.Go(func() error {
			meme := a.fetchMeme(gctx)
			mu.Lock()
			resp.Meme = feedback.MergeMeme(meme, fbSet)
			mu.Unlock()
			return nil
		})
	}

	// Join: every launched branch resolves before the response returns.
	// Branches absorb their own failures, so Wait only reports context
	// cancellation of the overarching request.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resp, nil
}

// fetchNews runs the news branch; any failure yields an empty list.
func (a *Aggregator) fetchNews(ctx context.Context, resolved personalize.Resolved) []models.NewsItem {
	f, err := a.registry.For(models.ContentNews)
	if err != nil {
		log.Printf("dashboard: news branch skipped: %v", err)
		return nil
	}
	args := provider.Args{Symbols: resolved.Symbols, AssetIDs: resolved.AssetIDs, Limit: a.newsLimit}
	items, err := fetchCached[[]models.NewsItem](ctx, a, f, args)
	if err != nil {
		log.Printf("dashboard: news branch failed: %v", err)
		return nil
	}
	return items
}

// fetchPrices runs the price branch; any failure yields an empty list.
func (a *Aggregator) fetchPrices(ctx context.Context, resolved personalize.Resolved) []models.CoinPrice {
	f, err := a.registry.For(models.ContentPrice)
	if err != nil {
		log.Printf("dashboard: price branch skipped: %v", err)
		return nil
	}
	args := provider.Args{AssetIDs: resolved.AssetIDs}
	prices, err := fetchCached[[]models.CoinPrice](ctx, a, f, args)
	if err != nil {
		log.Printf("dashboard: price branch failed: %v", err)
		return nil
	}
	return prices
}

// fetchInsight runs the AI insight branch; any failure yields nil.
func (a *Aggregator) fetchInsight(ctx context.Context, resolved personalize.Resolved) *models.AiInsight {
	f, err := a.registry.For(models.ContentInsight)
	if err != nil {
		log.Printf("dashboard: insight branch skipped: %v", err)
		return nil
	}
	args := provider.Args{AssetIDs: resolved.AssetIDs, InvestorType: resolved.InvestorType}
	insight, err := fetchCached[*models.AiInsight](ctx, a, f, args)
	if err != nil {
		log.Printf("dashboard: insight branch failed: %v", err)
		return nil
	}
	return insight
}

// fetchMeme runs the meme branch; any failure yields nil.
func (a *Aggregator) fetchMeme(ctx context.Context) *models.Meme {
	f, err := a.registry.For(models.ContentMeme)
	if err != nil {
		log.Printf("dashboard: meme branch skipped: %v", err)
		return nil
	}
	meme, err := fetchCached[*models.Meme](ctx, a, f, provider.Args{})
	if err != nil {
		log.Printf("dashboard: meme branch failed: %v", err)
		return nil
	}
	return meme
}

// fetchCached routes one fetcher call through the shared cache under the
// branch time budget. The fetcher is invoked at most once per cache key
// across concurrent requests.
func fetchCached[T any](ctx context.Context, a *Aggregator, f provider.Fetcher, args provider.Args) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, a.branchTimeout)
	defer cancel()

	key := provider.CacheKey(f.Name(), f.Kind(), args)
	return cache.GetOrFetch(ctx, a.cache, key, f.TTL(), func(ctx context.Context) (T, error) {
		var zero T
		v, err := f.Fetch(ctx, args)
		if err != nil {
			return zero, err
		}
		typed, ok := v.(T)
		if !ok {
			return zero, fmt.Errorf("provider %s returned %T for kind %s", f.Name(), v, f.Kind())
		}
		return typed, nil
	})
}
