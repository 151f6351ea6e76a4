package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/adeilh/quill/cache"
)

// Store implements cache.Store on a Redis server.
type Store struct {
	opts   Options
	client *goredis.Client
}

var _ cache.Store = (*Store)(nil)

// NewStore builds a Redis-backed cache store.
func NewStore(opts Options) *Store {
	cfg := opts.withDefaults()
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	return &Store{opts: cfg, client: client}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: GET %s: %w", key, err)
	}
	return payload, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		return s.Delete(ctx, key)
	}
	if ttl == 0 {
		ttl = s.opts.DefaultTTL
	}
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: SET %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis: DEL %s: %w", key, err)
	}
	return nil
}

// DeletePrefix scans the namespace for keys starting with prefix and deletes
// them in batches.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	return s.deleteMatching(ctx, s.opts.Namespace+escapeGlob(prefix)+"*")
}

// Clear removes every key under the store namespace.
func (s *Store) Clear(ctx context.Context) error {
	return s.DeletePrefix(ctx, "")
}

func (s *Store) deleteMatching(ctx context.Context, pattern string) error {
	iter := s.client.Scan(ctx, 0, escapeNamespace(pattern, s.opts.Namespace), s.opts.ScanCount).Iterator()
	batch := make([]string, 0, s.opts.ScanCount)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis: DEL batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= s.opts.ScanCount {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis: SCAN %s: %w", pattern, err)
	}
	return flush()
}

func (s *Store) key(k string) string {
	return s.opts.Namespace + k
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}

// escapeNamespace escapes glob characters inside the namespace portion of an
// already-built pattern.
func escapeNamespace(pattern, namespace string) string {
	if !strings.HasPrefix(pattern, namespace) {
		return pattern
	}
	return escapeGlob(namespace) + strings.TrimPrefix(pattern, namespace)
}
