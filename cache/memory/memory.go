// Package memory provides the in-process TTL cache used in front of the blog
// API. Entries expire lazily: an expired entry stays in the map until the next
// Get for its key removes it. There is no size bound and no background sweep.
package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/adeilh/quill/cache"
)

type entry[V any] struct {
	value     V
	storedAt  time.Time
	expiresAt time.Time
}

// Cache is a key/value map with per-entry expiration.
type Cache[V any] struct {
	mu         sync.Mutex
	items      map[string]entry[V]
	clock      clock.Clock
	defaultTTL time.Duration
}

// Options configures a Cache.
type Options struct {
	Clock      clock.Clock
	DefaultTTL time.Duration
}

type Option func(*Options)

// WithClock swaps the time source, mostly for tests with clock.NewMock().
func WithClock(c clock.Clock) Option {
	return func(o *Options) {
		if c != nil {
			o.Clock = c
		}
	}
}

// WithDefaultTTL sets the ttl used when Set is called with a zero ttl.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.DefaultTTL = d
		}
	}
}

func defaultOptions() Options {
	return Options{Clock: clock.New(), DefaultTTL: cache.DefaultTTL}
}

// New builds an empty Cache.
func New[V any](opts ...Option) *Cache[V] {
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Cache[V]{
		items:      make(map[string]entry[V]),
		clock:      cfg.Clock,
		defaultTTL: cfg.DefaultTTL,
	}
}

// Set stores value under key, replacing any previous entry. A zero ttl uses
// the default; a negative ttl yields an entry that is already expired.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	now := c.clock.Now()
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, storedAt: now, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
}

// Get returns the value stored under key if it has not expired. Reading an
// expired entry deletes it.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(it.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	return it.value, true
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// ClearWithPrefix removes every entry whose key starts with prefix. Matching
// is a plain string prefix: "comments:post:1" also clears "comments:post:10".
func (c *Cache[V]) ClearWithPrefix(prefix string) {
	c.mu.Lock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	clear(c.items)
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones nobody has read yet.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Contains reports whether key is physically present, ignoring expiry and
// without evicting anything.
func (c *Cache[V]) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}
