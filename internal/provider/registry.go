package provider

import (
	"sync"

	"github.com/itayco2/cryptoadvisor/pkg/models"
)

// Registry maps content kinds to the fetcher selected for them. Exactly
// one fetcher serves a kind at a time; registering another for the same
// kind replaces it (this is how the configured news source is chosen).
type Registry struct {
	mu       sync.RWMutex
	fetchers map[models.ContentType]Fetcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[models.ContentType]Fetcher)}
}

// Register installs f as the fetcher for its kind.
func (r *Registry) Register(f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[f.Kind()] = f
}

// For returns the fetcher serving the given kind.
func (r *Registry) For(kind models.ContentType) (Fetcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fetchers[kind]
	if !ok {
		return nil, &ErrKindNotRegistered{Kind: kind}
	}
	return f, nil
}

// Kinds returns the content kinds with a registered fetcher.
func (r *Registry) Kinds() []models.ContentType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]models.ContentType, 0, len(r.fetchers))
	for k := range r.fetchers {
		kinds = append(kinds, k)
	}
	return kinds
}
