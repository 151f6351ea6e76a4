package memory

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

type post struct {
	ID    string
	Title string
}

func newMockCache[V any](t *testing.T) (*Cache[V], *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	return New[V](WithClock(mock)), mock
}

func TestSetThenGetReturnsValue(t *testing.T) {
	c, _ := newMockCache[string](t)

	for _, ttl := range []time.Duration{time.Millisecond, time.Second, time.Hour} {
		key := fmt.Sprintf("posts:id:%d", ttl)
		c.Set(key, "value", ttl)
		got, ok := c.Get(key)
		if !ok {
			t.Fatalf("Get(%q) missing right after Set with ttl %s", key, ttl)
		}
		if got != "value" {
			t.Fatalf("Get(%q) = %q, want %q", key, got, "value")
		}
	}
}

func TestExpiredEntryIsEvictedOnRead(t *testing.T) {
	c, mock := newMockCache[string](t)

	c.Set("posts:all", "list", 200*time.Millisecond)
	mock.Add(201 * time.Millisecond)

	if !c.Contains("posts:all") {
		t.Fatalf("expired entry should linger until read")
	}
	if _, ok := c.Get("posts:all"); ok {
		t.Fatalf("expected expired entry to be absent")
	}
	if c.Contains("posts:all") {
		t.Fatalf("expected lazy eviction to remove the entry")
	}
}

func TestEntryExpiresExactlyAtDeadline(t *testing.T) {
	c, mock := newMockCache[int](t)

	c.Set("k", 1, time.Second)
	mock.Add(time.Second - time.Nanosecond)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("entry should be valid before its deadline")
	}
	mock.Add(time.Nanosecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry should be invalid once now == expiresAt")
	}
}

func TestZeroTTLUsesDefault(t *testing.T) {
	mock := clock.NewMock()
	c := New[string](WithClock(mock), WithDefaultTTL(time.Minute))

	c.Set("k", "v", 0)
	mock.Add(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected entry within default ttl")
	}
	mock.Add(time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire after default ttl")
	}
}

func TestDefaultTTLIsFiveMinutes(t *testing.T) {
	c, mock := newMockCache[string](t)

	c.Set("k", "v", 0)
	mock.Add(5*time.Minute - time.Millisecond)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected entry to survive just under five minutes")
	}
	mock.Add(time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire at five minutes")
	}
}

func TestNegativeTTLOverwritesWithExpiredEntry(t *testing.T) {
	c, _ := newMockCache[[]post](t)
	posts := []post{{ID: "1", Title: "p1"}, {ID: "2", Title: "p2"}}

	c.Set("posts:all", posts, 0)
	got, ok := c.Get("posts:all")
	if !ok || len(got) != 2 || got[1].Title != "p2" {
		t.Fatalf("Get(posts:all) = %v, %v", got, ok)
	}

	c.Set("posts:all", posts, -1)
	if _, ok := c.Get("posts:all"); ok {
		t.Fatalf("expected entry stored with negative ttl to be absent")
	}
}

func TestSetOverwrites(t *testing.T) {
	c, _ := newMockCache[string](t)

	c.Set("k", "first", time.Minute)
	c.Set("k", "second", time.Minute)
	if got, _ := c.Get("k"); got != "second" {
		t.Fatalf("Get() = %q, want second", got)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestDeleteAlwaysLeavesKeyAbsent(t *testing.T) {
	c, _ := newMockCache[string](t)

	c.Delete("never-set")
	if _, ok := c.Get("never-set"); ok {
		t.Fatalf("expected absent after deleting a missing key")
	}

	c.Set("k", "v", time.Minute)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected absent after delete")
	}
}

func TestClearWithPrefix(t *testing.T) {
	c, _ := newMockCache[string](t)
	keys := []string{"posts:all", "posts:id:1", "posts:slug:hello", "comments:post:1", "comments:post:2"}
	for _, k := range keys {
		c.Set(k, k, time.Minute)
	}

	c.ClearWithPrefix("posts:")

	var remaining []string
	for _, k := range keys {
		if _, ok := c.Get(k); ok {
			remaining = append(remaining, k)
		}
	}
	want := []string{"comments:post:1", "comments:post:2"}
	if !slices.Equal(remaining, want) {
		t.Fatalf("remaining = %v, want %v", remaining, want)
	}
}

func TestClearWithPrefixIsPlainStringPrefix(t *testing.T) {
	c, _ := newMockCache[string](t)
	c.Set("comments:post:1", "a", time.Minute)
	c.Set("comments:post:2", "b", time.Minute)
	c.Set("comments:post:10", "c", time.Minute)

	c.ClearWithPrefix("comments:post:1")

	if _, ok := c.Get("comments:post:1"); ok {
		t.Fatalf("expected comments:post:1 removed")
	}
	if _, ok := c.Get("comments:post:2"); !ok {
		t.Fatalf("expected comments:post:2 kept")
	}
	// Prefix matching does not respect the id boundary.
	if _, ok := c.Get("comments:post:10"); ok {
		t.Fatalf("expected comments:post:10 to share the prefix")
	}
}

func TestClearRemovesEverything(t *testing.T) {
	c, _ := newMockCache[int](t)
	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, time.Minute)
	}

	c.Clear()

	for i := 0; i < 10; i++ {
		if _, ok := c.Get(fmt.Sprintf("k%d", i)); ok {
			t.Fatalf("k%d survived Clear", i)
		}
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d after Clear", c.Len())
	}
}
