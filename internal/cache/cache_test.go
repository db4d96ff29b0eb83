package cache

import (
	"context"
	"testing"
	"time"
)

func newTestCache(ttl time.Duration) *Cache {
	c := New(&Config{
		Enabled:    true,
		DefaultTTL: ttl,
		MaxSize:    3,
		// No cleanup goroutine in tests; expiry is checked on Get.
	})
	return c
}

func TestCacheGetSet(t *testing.T) {
	c := newTestCache(time.Minute)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected miss on empty cache")
	}

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(entry.Value) != "v" {
		t.Errorf("got value %q", entry.Value)
	}

	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("got stats %+v", stats)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := newTestCache(time.Minute)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Nanosecond)
	time.Sleep(time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestCacheEviction(t *testing.T) {
	c := newTestCache(time.Minute)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c", "d"} {
		c.Set(ctx, key, []byte(key), 0)
	}

	stats := c.GetStats()
	if stats.TotalEntries != 3 {
		t.Errorf("got %d entries, max is 3", stats.TotalEntries)
	}
	if stats.Evictions != 1 {
		t.Errorf("got %d evictions", stats.Evictions)
	}
}

func TestCacheDisabled(t *testing.T) {
	c := New(&Config{Enabled: false})
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 0)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("disabled cache must never hit")
	}
}

func TestCacheInvalidation(t *testing.T) {
	c := newTestCache(time.Minute)
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"), 0)
	c.Set(ctx, "b", []byte("2"), 0)

	c.Delete(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("deleted key must miss")
	}
	if _, ok := c.Get(ctx, "b"); !ok {
		t.Error("unrelated key must survive")
	}

	c.Clear(ctx)
	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("cleared cache must miss")
	}
}
