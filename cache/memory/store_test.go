package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/adeilh/quill/cache"
)

func TestStoreSetGetDelete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Set(ctx, "posts:id:1", []byte("payload"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := store.Get(ctx, "posts:id:1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("Get() = %q, want payload", got)
	}
	if err := store.Delete(ctx, "posts:id:1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "posts:id:1"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "posts:id:1"); err != nil {
		t.Fatalf("Delete() on missing key error = %v", err)
	}
}

func TestStoreCopiesPayloads(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	payload := []byte("abc")

	_ = store.Set(ctx, "k", payload, time.Minute)
	payload[0] = 'z'

	got, _ := store.Get(ctx, "k")
	got[1] = 'z'
	again, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored payload mutated: %q", again)
	}
}

func TestStoreTTLAndPrefix(t *testing.T) {
	mock := clock.NewMock()
	store := NewStore(WithClock(mock))
	ctx := context.Background()

	_ = store.Set(ctx, "comments:post:1", []byte("c1"), time.Minute)
	_ = store.Set(ctx, "posts:all", []byte("all"), 2*time.Minute)

	mock.Add(90 * time.Second)
	if _, err := store.Get(ctx, "comments:post:1"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected comments entry expired, got %v", err)
	}
	if _, err := store.Get(ctx, "posts:all"); err != nil {
		t.Fatalf("expected posts entry alive, got %v", err)
	}

	if err := store.DeletePrefix(ctx, "posts:"); err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if store.Cache().Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", store.Cache().Len())
	}
}

func TestStoreContextCancellation(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Set(ctx, "k", []byte("v"), 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := store.Clear(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
