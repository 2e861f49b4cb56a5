// Package feedback holds the user feedback model: the set type the
// aggregator merges into content items, the pure merge functions, and
// the store contract with an in-memory implementation.
package feedback

import (
	"sync"
	"time"

	"github.com/itayco2/cryptoadvisor/pkg/models"
)

// Key identifies one piece of content within a user's feedback set.
type Key struct {
	ContentType models.ContentType
	ContentID   string
}

// Set maps content keys to the recorded sign (true = thumbs up).
type Set map[Key]bool

// NewSet builds a Set from stored records.
func NewSet(records []models.FeedbackRecord) Set {
	set := make(Set, len(records))
	for _, r := range records {
		set[Key{ContentType: r.ContentType, ContentID: r.ContentID}] = r.IsPositive
	}
	return set
}

// Sign returns the tri-state feedback for a content key: a pointer to
// +1 or -1 when a record exists, nil otherwise.
func (s Set) Sign(kind models.ContentType, contentID string) *int {
	isPositive, ok := s[Key{ContentType: kind, ContentID: contentID}]
	if !ok {
		return nil
	}
	v := models.FeedbackNegative
	if isPositive {
		v = models.FeedbackPositive
	}
	return &v
}

// --- Merge functions ---
//
// All merge functions are pure: they return stamped copies and never
// touch the store or the inputs.

// MergeNews stamps userFeedback on each news item.
func MergeNews(items []models.NewsItem, set Set) []models.NewsItem {
	out := make([]models.NewsItem, len(items))
	for i, it := range items {
		it.UserFeedback = set.Sign(models.ContentNews, it.ID)
		out[i] = it
	}
	return out
}

// MergePrices stamps userFeedback on each price entry.
func MergePrices(prices []models.CoinPrice, set Set) []models.CoinPrice {
	out := make([]models.CoinPrice, len(prices))
	for i, p := range prices {
		p.UserFeedback = set.Sign(models.ContentPrice, p.ID)
		out[i] = p
	}
	return out
}

// MergeInsight stamps userFeedback on an insight. Nil passes through.
func MergeInsight(insight *models.AiInsight, set Set) *models.AiInsight {
	if insight == nil {
		return nil
	}
	cp := *insight
	cp.UserFeedback = set.Sign(models.ContentInsight, cp.ID)
	return &cp
}

// MergeMeme stamps userFeedback on a meme. Nil passes through.
func MergeMeme(meme *models.Meme, set Set) *models.Meme {
	if meme == nil {
		return nil
	}
	cp := *meme
	cp.UserFeedback = set.Sign(models.ContentMeme, cp.ID)
	return &cp
}

// --- Store ---

// Store is the feedback persistence contract. At most one record exists
// per (user, content type, content id): re-submitting the sign already
// recorded toggles the record off, submitting the opposite sign updates
// it in place.
type Store interface {
	// Submit records, updates, or toggles off feedback for one item.
	Submit(userID string, kind models.ContentType, contentID string, isPositive bool) error

	// ForUser returns all feedback records for a user.
	ForUser(userID string) ([]models.FeedbackRecord, error)
}

// MemoryStore is the in-process Store implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[Key]models.FeedbackRecord

	now func() time.Time // test hook
}

// NewMemoryStore creates an empty in-memory feedback store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]map[Key]models.FeedbackRecord),
		now:     time.Now,
	}
}

// Submit implements Store. Submitting the currently recorded sign again
// removes the record (toggle off); anything else upserts.
func (s *MemoryStore) Submit(userID string, kind models.ContentType, contentID string, isPositive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key{ContentType: kind, ContentID: contentID}
	user, ok := s.records[userID]
	if !ok {
		user = make(map[Key]models.FeedbackRecord)
		s.records[userID] = user
	}

	if existing, ok := user[key]; ok && existing.IsPositive == isPositive {
		delete(user, key)
		return nil
	}

	user[key] = models.FeedbackRecord{
		UserID:      userID,
		ContentType: kind,
		ContentID:   contentID,
		IsPositive:  isPositive,
		CreatedAt:   s.now(),
	}
	return nil
}

// ForUser implements Store.
func (s *MemoryStore) ForUser(userID string) ([]models.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user := s.records[userID]
	records := make([]models.FeedbackRecord, 0, len(user))
	for _, r := range user {
		records = append(records, r)
	}
	return records, nil
}
