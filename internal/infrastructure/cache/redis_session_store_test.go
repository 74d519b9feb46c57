package cache

import (
	"context"
	"testing"
	"time"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/config"

	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisSessionStore(context.Background(), config.RedisConfig{
		Addr:      mr.Addr(),
		KeyPrefix: "test:session:",
		TTL:       time.Minute,
	})
	if err != nil {
		t.Fatalf("NewRedisSessionStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisSessionStore_PutGetRemove(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "s-1"); err != nil || ok {
		t.Fatalf("expected absent session, got ok=%v err=%v", ok, err)
	}

	if err := store.Put(ctx, "s-1", "t-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(ctx, "s-1", "t-2"); err != nil {
		t.Fatal(err)
	}
	tok, ok, err := store.Get(ctx, "s-1")
	if err != nil || !ok || tok != "t-2" {
		t.Errorf("expected t-2, got %q %v %v", tok, ok, err)
	}
	if !mr.Exists("test:session:s-1") {
		t.Error("expected prefixed key in redis")
	}
	if ttl := mr.TTL("test:session:s-1"); ttl != time.Minute {
		t.Errorf("expected 1m ttl, got %v", ttl)
	}

	if err := store.Remove(ctx, "s-1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(ctx, "s-1"); ok {
		t.Error("expected session removed")
	}
}

func TestRedisSessionStore_Expiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_ = store.Put(ctx, "s-1", "t-1")
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "s-1"); ok {
		t.Error("expected entry to expire")
	}
}

func TestRedisSessionStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisSessionStore(context.Background(), config.RedisConfig{Addr: addr}); err == nil {
		t.Error("expected ping failure")
	}
}
