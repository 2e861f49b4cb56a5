// Package models defines the shared data types exchanged between the
// provider adapters, the dashboard aggregator, and the HTTP API.
package models

import "time"

// ContentType identifies the category a piece of dashboard content
// belongs to. Feedback records are keyed by (ContentType, ContentID).
type ContentType string

const (
	ContentNews    ContentType = "news"
	ContentPrice   ContentType = "price"
	ContentInsight ContentType = "ai_insight"
	ContentMeme    ContentType = "meme"
)

// Feedback sign values. A nil UserFeedback pointer means "no feedback".
const (
	FeedbackPositive = 1
	FeedbackNegative = -1
)

// NewsItem is a single news article returned by a news provider.
type NewsItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Source       string    `json:"source"`
	PublishedAt  time.Time `json:"publishedAt"`
	Tags         []string  `json:"tags"`
	UserFeedback *int      `json:"userFeedback"`
}

// CoinPrice is the current market state of a single asset.
type CoinPrice struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"currentPrice"`
	PriceChange24h           float64 `json:"priceChange24h"`
	PriceChangePercentage24h float64 `json:"priceChangePercentage24h"`
	Image                    string  `json:"image"`
	UserFeedback             *int    `json:"userFeedback"`
}

// AiInsight is a generated market commentary. Its ID is deterministic for
// a given UTC date, investor type, and asset set, so feedback recorded
// against a healthy response still matches a degraded one on the same day.
type AiInsight struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags"`
	GeneratedAt  time.Time `json:"generatedAt"`
	UserFeedback *int      `json:"userFeedback"`
}

// Meme is one entry from the daily meme rotation.
type Meme struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ImageURL     string `json:"imageUrl"`
	Source       string `json:"source"`
	UserFeedback *int   `json:"userFeedback"`
}

// DashboardResponse is the composite payload assembled per request.
// Categories the user has not enabled, or that failed without a cached
// fallback, appear as empty slices or nil singletons, never as errors.
type DashboardResponse struct {
	News      []NewsItem  `json:"news"`
	Prices    []CoinPrice `json:"prices"`
	AiInsight *AiInsight  `json:"aiInsight"`
	Meme      *Meme       `json:"meme"`
}

// Preferences holds a user's onboarding selections. Assets are
// user-facing display names ("Bitcoin", "BNB"), not provider ids.
type Preferences struct {
	InterestedAssets []string `json:"interestedAssets"`
	ContentTypes     []string `json:"contentTypes"`
	InvestorType     string   `json:"investorType"`
}

// FeedbackRecord is a single stored thumbs-up/down entry. At most one
// record exists per (user, content type, content id).
type FeedbackRecord struct {
	UserID      string      `json:"userId"`
	ContentType ContentType `json:"contentType"`
	ContentID   string      `json:"contentId"`
	IsPositive  bool        `json:"isPositive"`
	CreatedAt   time.Time   `json:"createdAt"`
}
