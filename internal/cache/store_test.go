package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore()
	s.now = clock.Now
	return s, clock
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore()

	s.Set(ctx, "jane@acme.com|1111", []byte(`{"valid":true}`), 5*time.Minute)

	got, ok := s.Get(ctx, "jane@acme.com|1111")
	if !ok || string(got) != `{"valid":true}` {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	// Returned bytes are a copy.
	got[0] = 'X'
	again, _ := s.Get(ctx, "jane@acme.com|1111")
	if string(again) != `{"valid":true}` {
		t.Errorf("cache entry mutated through returned slice: %q", again)
	}

	if _, ok := s.Get(ctx, "jane@acme.com|0111"); ok {
		t.Error("different selection must miss")
	}

	clock.Advance(5 * time.Minute)
	if _, ok := s.Get(ctx, "jane@acme.com|1111"); ok {
		t.Error("entry still served at its TTL")
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore()

	s.Set(ctx, "short", []byte("a"), time.Minute)
	s.Set(ctx, "long", []byte("b"), time.Hour)

	clock.Advance(2 * time.Minute)
	if n := s.Cleanup(); n != 1 {
		t.Errorf("evicted %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
	if _, ok := s.Get(ctx, "long"); !ok {
		t.Error("live entry evicted")
	}
}

func TestStartCleanupStopsWithContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	s.Set(ctx, "gone", []byte("x"), time.Millisecond)
	s.StartCleanup(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper never evicted the expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
}

func TestNopStore(t *testing.T) {
	var s Store = NopStore{}
	s.Set(context.Background(), "k", []byte("v"), time.Minute)
	if _, ok := s.Get(context.Background(), "k"); ok {
		t.Error("NopStore returned a hit")
	}
}

func TestRedisStore(t *testing.T) {
	if _, err := NewRedisStore("127.0.0.1:1", "", 0, nil); err == nil {
		t.Error("expected a ping failure for an unreachable server")
	}

	addr := os.Getenv("MAILPROBE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MAILPROBE_TEST_REDIS_ADDR not set")
	}
	s, err := NewRedisStore(addr, "", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	s.Set(ctx, "test|1111", []byte("payload"), time.Minute)
	if got, ok := s.Get(ctx, "test|1111"); !ok || string(got) != "payload" {
		t.Errorf("Get = %q, %v", got, ok)
	}
	if _, ok := s.Get(ctx, "missing|1111"); ok {
		t.Error("unexpected hit")
	}
}
