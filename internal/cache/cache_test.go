package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fixedClock returns a controllable time source for freshness tests.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestCache(t *testing.T, maxEntries int) (*Cache, *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := New(maxEntries)
	c.now = clock.Now
	return c, clock
}

func TestLookupMissing(t *testing.T) {
	c, _ := newTestCache(t, 0)
	if _, _, ok := c.Lookup("nope"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestPutAndLookupFresh(t *testing.T) {
	c, clock := newTestCache(t, 0)
	c.Put("k", "v", time.Minute)

	entry, fresh, ok := c.Lookup("k")
	if !ok || !fresh {
		t.Fatalf("expected fresh hit, got ok=%v fresh=%v", ok, fresh)
	}
	if entry.Value.(string) != "v" {
		t.Fatalf("unexpected value: %v", entry.Value)
	}

	// Just before expiry the entry is still fresh.
	clock.Advance(time.Minute - time.Nanosecond)
	if _, fresh, _ := c.Lookup("k"); !fresh {
		t.Fatal("entry should be fresh just before TTL")
	}

	// At exactly the TTL it is stale but retained.
	clock.Advance(time.Nanosecond)
	entry, fresh, ok = c.Lookup("k")
	if !ok {
		t.Fatal("stale entry should still be retained")
	}
	if fresh {
		t.Fatal("entry should be stale at TTL")
	}
	if entry.Value.(string) != "v" {
		t.Fatalf("stale value changed: %v", entry.Value)
	}
}

func TestPutOverwritesAndRefreshes(t *testing.T) {
	c, clock := newTestCache(t, 0)
	c.Put("k", "old", time.Minute)
	clock.Advance(2 * time.Minute)

	if _, fresh, _ := c.Lookup("k"); fresh {
		t.Fatal("entry should have gone stale")
	}

	c.Put("k", "new", time.Minute)
	entry, fresh, ok := c.Lookup("k")
	if !ok || !fresh {
		t.Fatalf("overwrite should refresh: ok=%v fresh=%v", ok, fresh)
	}
	if entry.Value.(string) != "new" {
		t.Fatalf("unexpected value after overwrite: %v", entry.Value)
	}
	if c.Len() != 1 {
		t.Fatalf("overwrite should not grow the cache: len=%d", c.Len())
	}
}

func TestLRUEviction(t *testing.T) {
	c, _ := newTestCache(t, 2)
	c.Put("a", 1, time.Minute)
	c.Put("b", 2, time.Minute)

	// Touch "a" so "b" becomes the eviction candidate.
	c.Lookup("a")
	c.Put("c", 3, time.Minute)

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries after eviction, got %d", c.Len())
	}
	if _, _, ok := c.Lookup("b"); ok {
		t.Fatal("least recently used entry should have been evicted")
	}
	for _, key := range []string{"a", "c"} {
		if _, _, ok := c.Lookup(key); !ok {
			t.Fatalf("entry %q should have survived eviction", key)
		}
	}
}

func TestFlush(t *testing.T) {
	c, _ := newTestCache(t, 0)
	c.Put("a", 1, time.Minute)
	c.Put("b", 2, time.Minute)
	c.Flush()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after flush, got %d", c.Len())
	}
}

func TestGetOrFetchFreshHitSkipsFetch(t *testing.T) {
	c, _ := newTestCache(t, 0)
	c.Put("k", 42, time.Minute)

	v, err := GetOrFetch(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) {
		t.Fatal("fetch must not run on a fresh hit")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("unexpected value: %d", v)
	}
}

func TestGetOrFetchMissFetchesAndStores(t *testing.T) {
	c, _ := newTestCache(t, 0)

	v, err := GetOrFetch(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) {
		return 7, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7 {
		t.Fatalf("unexpected value: %d", v)
	}

	entry, fresh, ok := c.Lookup("k")
	if !ok || !fresh {
		t.Fatalf("fetched value should be cached fresh: ok=%v fresh=%v", ok, fresh)
	}
	if entry.Value.(int) != 7 {
		t.Fatalf("cached value mismatch: %v", entry.Value)
	}
}

func TestGetOrFetchStaleFallbackOnError(t *testing.T) {
	c, clock := newTestCache(t, 0)
	c.Put("k", "cached", time.Minute)
	clock.Advance(time.Hour)

	v, err := GetOrFetch(context.Background(), c, "k", time.Minute, func(context.Context) (string, error) {
		return "", errors.New("upstream down")
	})
	if err != nil {
		t.Fatalf("stale fallback should mask the error, got %v", err)
	}
	if v != "cached" {
		t.Fatalf("expected stale value, got %q", v)
	}

	// The failed refresh must not erase the stale entry.
	if _, _, ok := c.Lookup("k"); !ok {
		t.Fatal("stale entry was erased by a failed refresh")
	}
}

func TestGetOrFetchErrorWithoutFallback(t *testing.T) {
	c, _ := newTestCache(t, 0)
	wantErr := errors.New("upstream down")

	_, err := GetOrFetch(context.Background(), c, "k", time.Minute, func(context.Context) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fetch error to surface, got %v", err)
	}
	if _, _, ok := c.Lookup("k"); ok {
		t.Fatal("a failed fetch must not create an entry")
	}
}

func TestGetOrFetchStaleRefreshOverwrites(t *testing.T) {
	c, clock := newTestCache(t, 0)
	c.Put("k", "old", time.Minute)
	clock.Advance(time.Hour)

	v, err := GetOrFetch(context.Background(), c, "k", time.Minute, func(context.Context) (string, error) {
		return "new", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "new" {
		t.Fatalf("expected refreshed value, got %q", v)
	}
	if entry, fresh, _ := c.Lookup("k"); !fresh || entry.Value.(string) != "new" {
		t.Fatalf("refresh should overwrite the stale entry: fresh=%v value=%v", fresh, entry.Value)
	}
}

func TestGetOrFetchSingleFlight(t *testing.T) {
	c, _ := newTestCache(t, 0)

	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 99, nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := GetOrFetch(context.Background(), c, "k", time.Minute, fetch)
			if err != nil {
				t.Errorf("goroutine %d: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}

	// Let the goroutines pile onto the flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single upstream call, got %d", got)
	}
	for i, v := range results {
		if v != 99 {
			t.Fatalf("goroutine %d got %d", i, v)
		}
	}
}

func TestGetOrFetchIndependentKeys(t *testing.T) {
	c, _ := newTestCache(t, 0)

	_, err := GetOrFetch(context.Background(), c, "bad", time.Minute, func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error for key without fallback")
	}

	// A failure on one key leaves other keys unaffected.
	v, err := GetOrFetch(context.Background(), c, "good", time.Minute, func(context.Context) (int, error) {
		return 5, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 5 {
		t.Fatalf("unexpected value: %d", v)
	}
}
