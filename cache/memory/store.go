package memory

import (
	"context"
	"time"

	"github.com/adeilh/quill/cache"
)

// Store implements cache.Store on top of a Cache of byte payloads.
type Store struct {
	c *Cache[[]byte]
}

var _ cache.Store = (*Store)(nil)

// NewStore builds an in-memory cache.Store.
func NewStore(opts ...Option) *Store {
	return &Store{c: New[[]byte](opts...)}
}

// Cache exposes the underlying TTL cache.
func (s *Store) Cache() *Cache[[]byte] { return s.c }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	v, ok := s.c.Get(key)
	if !ok {
		return nil, cache.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.c.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.c.Delete(key)
	return nil
}

func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.c.ClearWithPrefix(prefix)
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.c.Clear()
	return nil
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
