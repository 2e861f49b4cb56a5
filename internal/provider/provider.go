// Package provider defines the uniform contract the dashboard aggregator
// uses to talk to external content providers. Each concrete adapter wraps
// one upstream API behind the Fetcher interface; the aggregator selects
// adapters by content kind through a Registry, never by concrete type.
package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/itayco2/cryptoadvisor/pkg/models"
)

// Args carries the per-request arguments a fetcher may need. Each fetcher
// documents which fields it reads; unused fields are ignored.
type Args struct {
	// AssetIDs are canonical provider asset ids ("bitcoin", "binancecoin").
	AssetIDs []string
	// Symbols are ticker symbols ("BTC", "ETH") for news filtering.
	Symbols []string
	// Limit caps the number of returned items where the kind is a list.
	Limit int
	// InvestorType is the user's investor profile label ("HODLer").
	InvestorType string
}

// Fetcher is the capability interface all content adapters implement.
// A fetcher makes a single attempt against its upstream within its own
// time budget; it never retries. List kinds return their element slice,
// singleton kinds return a pointer. Failures the adapter cannot absorb
// internally are returned as errors for the cache layer to fall back on.
type Fetcher interface {
	// Kind returns the content category this fetcher produces.
	Kind() models.ContentType

	// Name returns the upstream provider identifier ("coingecko").
	Name() string

	// TTL returns how long a successful result stays fresh in the cache.
	TTL() time.Duration

	// Fetch retrieves content for the given arguments. The returned type
	// depends on the kind:
	//   - ContentPrice   → []models.CoinPrice
	//   - ContentNews    → []models.NewsItem
	//   - ContentInsight → *models.AiInsight
	//   - ContentMeme    → *models.Meme
	Fetch(ctx context.Context, args Args) (any, error)
}

// ErrKindNotRegistered is returned when no fetcher serves a content kind.
type ErrKindNotRegistered struct {
	Kind models.ContentType
}

func (e *ErrKindNotRegistered) Error() string {
	return fmt.Sprintf("no fetcher registered for content kind %q", e.Kind)
}

// CacheKey builds the cache fingerprint for a fetcher call: the provider
// name plus its normalized arguments. Asset and symbol lists are
// lower-cased, deduplicated, and sorted so equivalent argument sets from
// different users map to the same entry.
func CacheKey(name string, kind models.ContentType, args Args) string {
	parts := []string{name, string(kind)}
	if ids := NormalizeList(args.AssetIDs); len(ids) > 0 {
		parts = append(parts, "ids="+strings.Join(ids, ","))
	}
	if syms := NormalizeList(args.Symbols); len(syms) > 0 {
		parts = append(parts, "symbols="+strings.Join(syms, ","))
	}
	if args.Limit > 0 {
		parts = append(parts, fmt.Sprintf("limit=%d", args.Limit))
	}
	if args.InvestorType != "" {
		parts = append(parts, "investor="+strings.ToLower(args.InvestorType))
	}
	return strings.Join(parts, ":")
}

// NormalizeList lower-cases, trims, deduplicates, and sorts a string list.
func NormalizeList(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
