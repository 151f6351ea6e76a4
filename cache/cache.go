package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL applies whenever a caller passes a zero ttl.
const DefaultTTL = 5 * time.Minute

var ErrNotFound = errors.New("cache: key not found")

// Store represents a simple TTL-based cache abstraction that can be backed
// by memory, Redis, or any other KV store.
//
// A ttl of zero selects the store's default; a negative ttl stores an entry
// that is already expired. Delete on a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
}
