// Package openrouter implements the AI insight adapter backed by the
// OpenRouter chat completions API.
//
// The adapter never fails its caller: any problem (missing key, upstream
// error, malformed payload) degrades to a placeholder insight carrying
// the same deterministic daily id as a healthy response, so feedback
// recorded in one state stays visible in the other.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"github.com/itayco2/cryptoadvisor/internal/provider"
	"github.com/itayco2/cryptoadvisor/pkg/models"
)

const providerName = "openrouter"

// Fetcher generates one market insight per day for an investor profile
// and asset set.
type Fetcher struct {
	baseURL string
	apiKey  string
	model   string
	ttl     time.Duration
	client  *http.Client
	now     func() time.Time // test hook
}

// Option configures the fetcher.
type Option func(*Fetcher)

// WithBaseURL overrides the OpenRouter API base URL.
func WithBaseURL(u string) Option {
	return func(f *Fetcher) { f.baseURL = strings.TrimRight(u, "/") }
}

// WithModel sets the model routed to.
func WithModel(model string) Option {
	return func(f *Fetcher) { f.model = model }
}

// WithTimeout sets the per-call time budget.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.client.Timeout = d }
}

// WithTTL sets the cache TTL advertised by this fetcher.
func WithTTL(d time.Duration) Option {
	return func(f *Fetcher) { f.ttl = d }
}

// New creates an OpenRouter insight fetcher. An empty apiKey is allowed;
// every call then returns the unavailable placeholder.
func New(apiKey string, opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL: "https://openrouter.ai/api/v1",
		apiKey:  apiKey,
		model:   "openai/gpt-3.5-turbo",
		ttl:     24 * time.Hour,
		client:  &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) Kind() models.ContentType { return models.ContentInsight }
func (f *Fetcher) Name() string             { return providerName }
func (f *Fetcher) TTL() time.Duration       { return f.ttl }

// Fetch returns a daily insight for args.AssetIDs and args.InvestorType.
// It never returns an error: failures degrade to a placeholder insight.
func (f *Fetcher) Fetch(ctx context.Context, args provider.Args) (any, error) {
	assets := provider.NormalizeList(args.AssetIDs)
	now := f.now().UTC()

	if f.apiKey != "" {
		if insight := f.generate(ctx, assets, args.InvestorType, now); insight != nil {
			return insight, nil
		}
	}
	return fallbackInsight(assets, args.InvestorType, now), nil
}

// InsightID derives the deterministic daily identifier from the UTC date,
// the investor type label, and a hash of the joined asset list. Feedback
// matching depends on this id being stable within a day.
func InsightID(date time.Time, investorType string, assets []string) string {
	h := fnv.New32a()
	h.Write([]byte(strings.Join(assets, "_")))
	return fmt.Sprintf("ai_insight_%s_%s_%d", date.UTC().Format("2006-01-02"), investorType, h.Sum32())
}

// generate calls the chat completions endpoint. It returns nil on any
// failure so the caller can fall back to the placeholder.
func (f *Fetcher) generate(ctx context.Context, assets []string, investorType string, now time.Time) *models.AiInsight {
	prompt := fmt.Sprintf(
		"Generate a brief, professional crypto market insight for a %s interested in %s. "+
			"Include market analysis, technical outlook, and actionable advice. "+
			"Keep it concise (2-3 sentences) and crypto-focused. Current date: %s",
		strings.ToLower(investorType), strings.Join(assets, ", "), now.Format("January 02, 2006"))

	reqBody := chatRequest{
		Model:       f.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   150,
		Temperature: 0.7,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)
	req.Header.Set("HTTP-Referer", "https://cryptoadvisor.com")
	req.Header.Set("X-Title", "Crypto Advisor")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return nil
	}

	return &models.AiInsight{
		ID:          InsightID(now, investorType, assets),
		Title:       "AI Market Analysis - " + now.Format("January 02, 2006"),
		Content:     strings.TrimSpace(result.Choices[0].Message.Content),
		Tags:        assets,
		GeneratedAt: now,
	}
}

// fallbackInsight is returned when the AI service cannot be reached.
func fallbackInsight(assets []string, investorType string, now time.Time) *models.AiInsight {
	return &models.AiInsight{
		ID:          InsightID(now, investorType, assets),
		Title:       "AI Insight Unavailable",
		Content:     "AI service is currently unavailable. Please try again later.",
		Tags:        assets,
		GeneratedAt: now,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
