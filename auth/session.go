package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/adeilh/quill/cache"
	"github.com/adeilh/quill/cache/redis"
)

var (
	ErrSessionInvalidDescriptor = errors.New("auth: invalid session descriptor")
	ErrSessionExpired           = errors.New("auth: session expired")
)

type SessionStoreOptions struct {
	Prefix     string
	DefaultTTL time.Duration
	// StateTTL bounds how long a login redirect may take.
	StateTTL time.Duration
	Clock    clock.Clock
	Codec    cache.Codec
}

// CacheSessionStore keeps sessions and login states in a cache.Store.
type CacheSessionStore struct {
	store      cache.Store
	codec      cache.Codec
	prefix     string
	defaultTTL time.Duration
	stateTTL   time.Duration
	clock      clock.Clock
}

var (
	_ SessionStore = (*CacheSessionStore)(nil)
	_ StateStore   = (*CacheSessionStore)(nil)
)

func NewCacheSessionStore(store cache.Store, opts SessionStoreOptions) *CacheSessionStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "session"
	}
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	stateTTL := opts.StateTTL
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	codec := opts.Codec
	if codec == nil {
		codec = cache.JSONCodec{}
	}
	return &CacheSessionStore{
		store:      store,
		codec:      codec,
		prefix:     prefix,
		defaultTTL: ttl,
		stateTTL:   stateTTL,
		clock:      clk,
	}
}

type RedisSessionStoreOptions struct {
	Prefix     string
	DefaultTTL time.Duration
	Redis      redis.Options
}

// NewRedisSessionStore shares sessions across web instances through Redis.
func NewRedisSessionStore(opts RedisSessionStoreOptions) *CacheSessionStore {
	return NewCacheSessionStore(
		redis.NewStore(opts.Redis),
		SessionStoreOptions{Prefix: opts.Prefix, DefaultTTL: opts.DefaultTTL},
	)
}

func (s *CacheSessionStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func (s *CacheSessionStore) stateKey(state string) string {
	return fmt.Sprintf("%s:state:%s", s.prefix, state)
}

// Create opens a session for profile lasting the default TTL.
func (s *CacheSessionStore) Create(ctx context.Context, profile Profile) (Session, error) {
	if err := contextError(ctx); err != nil {
		return Session{}, err
	}
	if profile.Email == "" && profile.ID == "" {
		return Session{}, ErrSessionInvalidDescriptor
	}
	now := s.clock.Now()
	sess := Session{
		ID:        uuid.NewString(),
		Profile:   profile,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.defaultTTL),
	}
	if err := cache.SetValue(ctx, s.store, s.codec, s.key(sess.ID), sess, s.defaultTTL); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Get fetches a session by ID.
func (s *CacheSessionStore) Get(ctx context.Context, id string) (Session, error) {
	if err := contextError(ctx); err != nil {
		return Session{}, err
	}
	if id == "" {
		return Session{}, ErrSessionInvalidDescriptor
	}

	var sess Session
	if err := cache.GetValue(ctx, s.store, s.codec, s.key(id), &sess); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return Session{}, ErrSessionExpired
		}
		return Session{}, err
	}

	if sess.IsExpired(s.clock.Now()) {
		_ = s.store.Delete(ctx, s.key(id))
		return Session{}, ErrSessionExpired
	}
	return sess, nil
}

// Delete removes a session by ID.
func (s *CacheSessionStore) Delete(ctx context.Context, id string) error {
	if err := contextError(ctx); err != nil {
		return err
	}
	if id == "" {
		return ErrSessionInvalidDescriptor
	}
	if err := s.store.Delete(ctx, s.key(id)); err != nil && !errors.Is(err, cache.ErrNotFound) {
		return err
	}
	return nil
}

// Touch extends the expiry of a session.
func (s *CacheSessionStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	if err := contextError(ctx); err != nil {
		return err
	}
	if id == "" {
		return ErrSessionInvalidDescriptor
	}
	ttl := expiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return ErrSessionExpired
	}

	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.ExpiresAt = expiresAt
	return cache.SetValue(ctx, s.store, s.codec, s.key(id), sess, ttl)
}

// NewState issues a random state value for an authorization request.
func (s *CacheSessionStore) NewState(ctx context.Context) (string, error) {
	if err := contextError(ctx); err != nil {
		return "", err
	}
	state := uuid.NewString()
	if err := s.store.Set(ctx, s.stateKey(state), []byte{1}, s.stateTTL); err != nil {
		return "", err
	}
	return state, nil
}

// ConsumeState redeems a state exactly once.
func (s *CacheSessionStore) ConsumeState(ctx context.Context, state string) error {
	if err := contextError(ctx); err != nil {
		return err
	}
	if state == "" {
		return ErrInvalidState
	}
	if _, err := s.store.Get(ctx, s.stateKey(state)); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return ErrInvalidState
		}
		return err
	}
	return s.store.Delete(ctx, s.stateKey(state))
}
