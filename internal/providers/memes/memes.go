// Package memes implements the meme adapter. It serves one entry from a
// fixed catalog, selected by a seed derived from the UTC date so every
// user sees the same meme on a given day.
package memes

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/itayco2/cryptoadvisor/internal/provider"
	"github.com/itayco2/cryptoadvisor/pkg/models"
)

const providerName = "memes"

// catalog is the fixed daily rotation. Ids are stable so feedback
// recorded against a meme keeps matching it.
var catalog = []models.Meme{
	{ID: "1", Title: "HODL Strong", ImageURL: "https://picsum.photos/400/300?random=1", Source: "Static"},
	{ID: "2", Title: "Diamond Hands", ImageURL: "https://picsum.photos/400/300?random=2", Source: "Static"},
	{ID: "3", Title: "To The Moon", ImageURL: "https://picsum.photos/400/300?random=3", Source: "Static"},
	{ID: "4", Title: "Buy The Dip", ImageURL: "https://picsum.photos/400/300?random=4", Source: "Static"},
	{ID: "5", Title: "When Lambo?", ImageURL: "https://picsum.photos/400/300?random=5", Source: "Static"},
	{ID: "6", Title: "This Is Fine", ImageURL: "https://picsum.photos/400/300?random=6", Source: "Static"},
	{ID: "7", Title: "Number Go Up", ImageURL: "https://picsum.photos/400/300?random=7", Source: "Static"},
	{ID: "8", Title: "Paper Hands", ImageURL: "https://picsum.photos/400/300?random=8", Source: "Static"},
}

// fallback is returned if the catalog is ever empty. Its id is distinct
// from every catalog id.
var fallback = models.Meme{
	ID:       "fallback",
	Title:    "HODL Strong",
	ImageURL: "https://picsum.photos/400/300?random=99",
	Source:   "Fallback",
}

// Fetcher picks the meme of the day.
type Fetcher struct {
	ttl time.Duration
	now func() time.Time // test hook
}

// Option configures the fetcher.
type Option func(*Fetcher)

// WithTTL sets the cache TTL advertised by this fetcher.
func WithTTL(d time.Duration) Option {
	return func(f *Fetcher) { f.ttl = d }
}

// New creates a meme fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		ttl: 24 * time.Hour,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) Kind() models.ContentType { return models.ContentMeme }
func (f *Fetcher) Name() string             { return providerName }
func (f *Fetcher) TTL() time.Duration       { return f.ttl }

// Fetch returns the meme selected for the current UTC date. It never
// returns an error.
func (f *Fetcher) Fetch(_ context.Context, _ provider.Args) (any, error) {
	return f.pick(f.now().UTC()), nil
}

func (f *Fetcher) pick(date time.Time) *models.Meme {
	if len(catalog) == 0 {
		m := fallback
		return &m
	}
	h := fnv.New32a()
	h.Write([]byte(date.Format("2006-01-02")))
	rng := rand.New(rand.NewSource(int64(h.Sum32())))
	m := catalog[rng.Intn(len(catalog))]
	return &m
}
