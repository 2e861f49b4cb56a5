// Package session defines the identity contracts the dashboard consumes:
// resolving an opaque request token to a user id, and loading a user's
// stored preferences. Auth mechanics and persistence live behind these
// interfaces and are not part of this service.
package session

import (
	"sync"

	"github.com/itayco2/cryptoadvisor/pkg/models"
)

// Resolver resolves an opaque bearer token to a user id.
type Resolver interface {
	// Resolve returns the user id for token and whether it is valid.
	Resolve(token string) (string, bool)
}

// PreferenceStore loads a user's stored onboarding preferences.
type PreferenceStore interface {
	// Get returns the preferences for userID, or ok=false when
	// onboarding has not been completed (callers fall back to defaults).
	Get(userID string) (*models.Preferences, bool)
}

// MemoryResolver is an in-process token table.
type MemoryResolver struct {
	mu     sync.RWMutex
	tokens map[string]string // token → user id
}

// NewMemoryResolver creates an empty resolver.
func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{tokens: make(map[string]string)}
}

// Grant associates a token with a user id.
func (r *MemoryResolver) Grant(token, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = userID
}

// Revoke removes a token.
func (r *MemoryResolver) Revoke(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
}

// Resolve implements Resolver.
func (r *MemoryResolver) Resolve(token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.tokens[token]
	return userID, ok
}

// MemoryPreferences is an in-process preference store.
type MemoryPreferences struct {
	mu    sync.RWMutex
	prefs map[string]models.Preferences
}

// NewMemoryPreferences creates an empty preference store.
func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{prefs: make(map[string]models.Preferences)}
}

// Set stores preferences for a user (onboarding completion).
func (p *MemoryPreferences) Set(userID string, prefs models.Preferences) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs[userID] = prefs
}

// Get implements PreferenceStore.
func (p *MemoryPreferences) Get(userID string) (*models.Preferences, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	prefs, ok := p.prefs[userID]
	if !ok {
		return nil, false
	}
	cp := prefs
	return &cp, true
}
