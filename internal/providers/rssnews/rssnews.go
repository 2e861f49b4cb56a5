// Package rssnews implements an RSS-backed news adapter. It is the
// config-selectable alternative to the CryptoPanic adapter for
// deployments without a CryptoPanic API key.
package rssnews

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/itayco2/cryptoadvisor/internal/infra"
	"github.com/itayco2/cryptoadvisor/internal/provider"
	"github.com/itayco2/cryptoadvisor/pkg/models"
)

const providerName = "rssnews"

// Feed names a single RSS source.
type Feed struct {
	Name string
	URL  string
}

// DefaultFeeds lists the crypto news feeds polled when none are configured.
var DefaultFeeds = []Feed{
	{Name: "CoinDesk", URL: "https://www.coindesk.com/arc/outboundfeeds/rss/"},
	{Name: "CoinTelegraph", URL: "https://cointelegraph.com/rss"},
	{Name: "Decrypt", URL: "https://decrypt.co/feed"},
}

// Fetcher aggregates articles from a set of RSS feeds and filters them
// by the requested ticker symbols.
type Fetcher struct {
	feeds   []Feed
	ttl     time.Duration
	parser  *gofeed.Parser
	limiter *infra.RateLimiter
}

// Option configures the fetcher.
type Option func(*Fetcher)

// WithFeeds replaces the default feed list.
func WithFeeds(feeds []Feed) Option {
	return func(f *Fetcher) {
		if len(feeds) > 0 {
			f.feeds = feeds
		}
	}
}

// WithTTL sets the cache TTL advertised by this fetcher.
func WithTTL(d time.Duration) Option {
	return func(f *Fetcher) { f.ttl = d }
}

// New creates an RSS news fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		feeds:   DefaultFeeds,
		ttl:     5 * time.Minute,
		parser:  gofeed.NewParser(),
		limiter: infra.NewRateLimiter(2, time.Second), // conservative: 2 req/s
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) Kind() models.ContentType { return models.ContentNews }
func (f *Fetcher) Name() string             { return providerName }
func (f *Fetcher) TTL() time.Duration       { return f.ttl }

// Fetch polls every configured feed once, keeps the articles mentioning
// any requested symbol or asset id, and returns the newest args.Limit of
// them. A feed that fails to parse is skipped; the whole call fails only
// when every feed does.
func (f *Fetcher) Fetch(ctx context.Context, args provider.Args) (any, error) {
	keywords := newsKeywords(args)

	var items []models.NewsItem
	var failed int
	for _, src := range f.feeds {
		batch, err := f.fetchFeed(ctx, src)
		if err != nil {
			failed++
			continue
		}
		items = append(items, batch...)
	}
	if failed == len(f.feeds) {
		return nil, fmt.Errorf("rssnews: all %d feeds failed", failed)
	}

	if len(keywords) > 0 {
		filtered := items[:0]
		for _, it := range items {
			if matched := matchTags(it.Title, keywords); len(matched) > 0 {
				it.Tags = matched
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if args.Limit > 0 && len(items) > args.Limit {
		items = items[:args.Limit]
	}
	return items, nil
}

func (f *Fetcher) fetchFeed(ctx context.Context, src Feed) ([]models.NewsItem, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", src.Name, err)
	}

	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := item.GUID
		if id == "" {
			id = item.Link
		}
		link := item.Link
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			link = "#"
		}
		n := models.NewsItem{
			ID:     id,
			Title:  cleanHTML(item.Title),
			URL:    link,
			Source: src.Name,
		}
		if item.PublishedParsed != nil {
			n.PublishedAt = *item.PublishedParsed
		}
		items = append(items, n)
	}
	return items, nil
}

// cleanHTML strips markup some feeds embed in titles.
func cleanHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

// newsKeywords maps the request arguments to case-folded search keywords
// keyed by the tag reported when they match.
func newsKeywords(args provider.Args) map[string]string {
	kw := make(map[string]string)
	for _, s := range provider.NormalizeList(args.Symbols) {
		kw[s] = strings.ToUpper(s)
	}
	for _, id := range provider.NormalizeList(args.AssetIDs) {
		kw[strings.ReplaceAll(id, "-", " ")] = strings.ToUpper(id)
	}
	return kw
}

// matchTags returns the tags whose keyword appears in text.
func matchTags(text string, keywords map[string]string) []string {
	lower := strings.ToLower(text)
	var tags []string
	for kw, tag := range keywords {
		if strings.Contains(lower, kw) {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}
