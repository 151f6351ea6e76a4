package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/adeilh/quill/cache/memory"
	"github.com/adeilh/quill/cache/redis"
	testredis "github.com/adeilh/quill/internal/testutil/rediscontainer"
)

var reader = Profile{ID: "auth0|1", Email: "reader@example.com", Name: "Reader"}

func newMemorySessionStore(clk *clock.Mock) *CacheSessionStore {
	return NewCacheSessionStore(memory.NewStore(memory.WithClock(clk)), SessionStoreOptions{
		DefaultTTL: time.Hour,
		Clock:      clk,
	})
}

func TestSessionStoreCreateGetDelete(t *testing.T) {
	store := newMemorySessionStore(clock.NewMock())
	ctx := context.Background()

	sess, err := store.Create(ctx, reader)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.ID == "" || !sess.ExpiresAt.Equal(sess.IssuedAt.Add(time.Hour)) {
		t.Fatalf("unexpected session: %+v", sess)
	}

	fetched, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if fetched.Profile != reader {
		t.Fatalf("profile mismatch: got %+v want %+v", fetched.Profile, reader)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestSessionStoreValidation(t *testing.T) {
	store := newMemorySessionStore(clock.NewMock())
	ctx := context.Background()

	if _, err := store.Create(ctx, Profile{}); !errors.Is(err, ErrSessionInvalidDescriptor) {
		t.Fatalf("expected ErrSessionInvalidDescriptor, got %v", err)
	}
	if _, err := store.Get(ctx, ""); !errors.Is(err, ErrSessionInvalidDescriptor) {
		t.Fatalf("expected ErrSessionInvalidDescriptor, got %v", err)
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Create(cancelled, reader); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSessionStoreExpiryAndTouch(t *testing.T) {
	clk := clock.NewMock()
	store := newMemorySessionStore(clk)
	ctx := context.Background()

	sess, err := store.Create(ctx, reader)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	clk.Add(50 * time.Minute)
	if err := store.Touch(ctx, sess.ID, clk.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	clk.Add(30 * time.Minute)
	if _, err := store.Get(ctx, sess.ID); err != nil {
		t.Fatalf("expected session to persist after touch, got %v", err)
	}

	clk.Add(31 * time.Minute)
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if err := store.Touch(ctx, sess.ID, clk.Now().Add(-time.Second)); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired for past expiry, got %v", err)
	}
}

func TestStateIsSingleUse(t *testing.T) {
	clk := clock.NewMock()
	store := newMemorySessionStore(clk)
	ctx := context.Background()

	state, err := store.NewState(ctx)
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	if err := store.ConsumeState(ctx, state); err != nil {
		t.Fatalf("ConsumeState() error = %v", err)
	}
	if err := store.ConsumeState(ctx, state); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on reuse, got %v", err)
	}

	stale, _ := store.NewState(ctx)
	clk.Add(11 * time.Minute)
	if err := store.ConsumeState(ctx, stale); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after expiry, got %v", err)
	}
	if err := store.ConsumeState(ctx, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for empty state, got %v", err)
	}
}

func TestRedisSessionStoreCreateGetDelete(t *testing.T) {
	store := newRedisSessionStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sess, err := store.Create(ctx, reader)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	fetched, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if fetched.Profile.Email != reader.Email {
		t.Fatalf("email mismatch: got %s want %s", fetched.Profile.Email, reader.Email)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestRedisSessionStoreTouch(t *testing.T) {
	store := newRedisSessionStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sess, err := store.Create(ctx, reader)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Touch(ctx, sess.ID, time.Now().Add(300*time.Millisecond)); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	time.Sleep(500 * time.Millisecond)
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected shortened session to expire, got %v", err)
	}
}

func newRedisSessionStore(t *testing.T) *CacheSessionStore {
	t.Helper()
	if err := testredis.Setup(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	return NewRedisSessionStore(RedisSessionStoreOptions{
		Prefix:     "session-test",
		DefaultTTL: time.Minute,
		Redis:      redis.Options{Addr: testredis.Addr(), Namespace: "quill-auth-test:"},
	})
}
