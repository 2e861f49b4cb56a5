// Package cryptopanic implements the news feed adapter backed by the
// CryptoPanic posts API.
//
// Docs: https://cryptopanic.com/developers/api/
package cryptopanic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/itayco2/cryptoadvisor/internal/infra"
	"github.com/itayco2/cryptoadvisor/internal/provider"
	"github.com/itayco2/cryptoadvisor/pkg/models"
)

const providerName = "cryptopanic"

// Fetcher fetches recent crypto news filtered by ticker symbols.
type Fetcher struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	ttl     time.Duration
	limiter *infra.RateLimiter
}

// Option configures the fetcher.
type Option func(*Fetcher)

// WithBaseURL overrides the CryptoPanic API base URL.
func WithBaseURL(u string) Option {
	return func(f *Fetcher) { f.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-call time budget.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithTTL sets the cache TTL advertised by this fetcher.
func WithTTL(d time.Duration) Option {
	return func(f *Fetcher) { f.ttl = d }
}

// New creates a CryptoPanic news fetcher.
func New(apiKey string, opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL: "https://cryptopanic.com/api/v1",
		apiKey:  apiKey,
		timeout: 10 * time.Second,
		ttl:     5 * time.Minute,
		limiter: infra.NewRateLimiter(5, time.Second),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) Kind() models.ContentType { return models.ContentNews }
func (f *Fetcher) Name() string             { return providerName }
func (f *Fetcher) TTL() time.Duration       { return f.ttl }

// Fetch returns up to args.Limit news items for args.Symbols, preserving
// provider order. Malformed article URLs are replaced with "#" rather
// than dropped; a missing source title becomes "Unknown".
func (f *Fetcher) Fetch(ctx context.Context, args provider.Args) (any, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("auth_token", f.apiKey)
	q.Set("public", "true")
	if args.Limit > 0 {
		q.Set("limit", strconv.Itoa(args.Limit))
	}
	if symbols := provider.NormalizeList(args.Symbols); len(symbols) > 0 {
		q.Set("currencies", strings.ToUpper(strings.Join(symbols, ",")))
	}

	body, _, err := infra.DoGet(ctx, f.baseURL+"/posts/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("cryptopanic posts: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("cryptopanic read response: %w", err)
	}

	var resp postsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("cryptopanic parse JSON: %w", err)
	}

	items := make([]models.NewsItem, 0, len(resp.Results))
	for _, p := range resp.Results {
		items = append(items, mapNewsItem(p))
	}
	if args.Limit > 0 && len(items) > args.Limit {
		items = items[:args.Limit]
	}
	return items, nil
}

func mapNewsItem(p post) models.NewsItem {
	u := p.URL
	if !validURL(u) {
		u = "#"
	}
	source := "Unknown"
	if p.Source != nil && p.Source.Title != "" {
		source = p.Source.Title
	}
	tags := make([]string, 0, len(p.Currencies))
	for _, c := range p.Currencies {
		tags = append(tags, c.Code)
	}
	return models.NewsItem{
		ID:          strconv.FormatInt(p.ID, 10),
		Title:       p.Title,
		URL:         u,
		Source:      source,
		PublishedAt: p.PublishedAt,
		Tags:        tags,
	}
}

func validURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

type postsResponse struct {
	Results []post `json:"results"`
}

type post struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	PublishedAt time.Time   `json:"published_at"`
	Source      *postSource `json:"source"`
	Currencies  []currency  `json:"currencies"`
}

type postSource struct {
	Title string `json:"title"`
}

type currency struct {
	Code string `json:"code"`
}
