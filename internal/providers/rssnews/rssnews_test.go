package rssnews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/itayco2/cryptoadvisor/internal/provider"
	"github.com/itayco2/cryptoadvisor/pkg/models"
)

func rssBody(items string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>%s</channel></rss>`, items)
}

const feedItems = `
<item>
  <title>Bitcoin rallies past resistance</title>
  <link>https://example.com/btc-rally</link>
  <guid>btc-rally-1</guid>
  <pubDate>Sat, 01 Jun 2024 10:00:00 GMT</pubDate>
</item>
<item>
  <title>&lt;b&gt;ETH&lt;/b&gt; staking update</title>
  <link>https://example.com/eth-staking</link>
  <guid>eth-staking-1</guid>
  <pubDate>Sat, 01 Jun 2024 12:00:00 GMT</pubDate>
</item>
<item>
  <title>Weather forecast for Sunday</title>
  <link>https://example.com/weather</link>
  <guid>weather-1</guid>
  <pubDate>Sat, 01 Jun 2024 11:00:00 GMT</pubDate>
</item>`

func TestFetchFiltersAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssBody(feedItems)))
	}))
	defer srv.Close()

	f := New(WithFeeds([]Feed{{Name: "Test", URL: srv.URL}}))
	args := provider.Args{
		Symbols:  []string{"BTC", "ETH"},
		AssetIDs: []string{"bitcoin", "ethereum"},
		Limit:    5,
	}
	v, err := f.Fetch(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := v.([]models.NewsItem)

	// The weather item matches no symbol and is dropped; the remainder
	// is sorted newest first.
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].ID != "eth-staking-1" || items[1].ID != "btc-rally-1" {
		t.Errorf("unexpected order: %s, %s", items[0].ID, items[1].ID)
	}
	// Markup in titles is stripped.
	if items[0].Title != "ETH staking update" {
		t.Errorf("title: %q", items[0].Title)
	}
	if items[0].Source != "Test" {
		t.Errorf("source: %q", items[0].Source)
	}
	// "Bitcoin rallies" matches the asset-id keyword, not the ticker.
	if len(items[1].Tags) != 1 || items[1].Tags[0] != "BITCOIN" {
		t.Errorf("tags: %v", items[1].Tags)
	}
}

func TestFetchNoKeywordsKeepsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssBody(feedItems)))
	}))
	defer srv.Close()

	f := New(WithFeeds([]Feed{{Name: "Test", URL: srv.URL}}))
	v, err := f.Fetch(context.Background(), provider.Args{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if items := v.([]models.NewsItem); len(items) != 3 {
		t.Fatalf("expected all 3 items without keywords, got %d", len(items))
	}
}

func TestFetchTrimsToLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssBody(feedItems)))
	}))
	defer srv.Close()

	f := New(WithFeeds([]Feed{{Name: "Test", URL: srv.URL}}))
	v, err := f.Fetch(context.Background(), provider.Args{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if items := v.([]models.NewsItem); len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
}

func TestFetchSkipsFailingFeed(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssBody(feedItems)))
	}))
	defer good.Close()

	f := New(WithFeeds([]Feed{
		{Name: "Bad", URL: bad.URL},
		{Name: "Good", URL: good.URL},
	}))
	v, err := f.Fetch(context.Background(), provider.Args{Limit: 10})
	if err != nil {
		t.Fatalf("one healthy feed should carry the call: %v", err)
	}
	if items := v.([]models.NewsItem); len(items) != 3 {
		t.Fatalf("expected items from the healthy feed, got %d", len(items))
	}
}

func TestFetchAllFeedsFailing(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer bad.Close()

	f := New(WithFeeds([]Feed{{Name: "Bad", URL: bad.URL}}))
	if _, err := f.Fetch(context.Background(), provider.Args{}); err == nil {
		t.Fatal("expected error when every feed fails")
	}
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain title", "plain title"},
		{"  padded  ", "padded"},
		{"<b>bold</b> move", "bold move"},
		{"<a href='#'>link</a>", "link"},
	}
	for _, tt := range tests {
		if got := cleanHTML(tt.in); got != tt.want {
			t.Errorf("cleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
