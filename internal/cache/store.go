package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the response-cache contract. Values are serialised reports, so a
// hit is byte-for-byte what was inserted. Backends swallow their own
// failures and report a miss: the cache is only an optimisation.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Item represents a cached value with an expiration time.
type Item struct {
	Value      []byte
	Expiration int64
}

// MemoryStore is a thread-safe in-process cache.
type MemoryStore struct {
	items map[string]Item
	mu    sync.RWMutex
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]Item),
		now:   time.Now,
	}
}

// Set adds a value to the cache with a specific TTL.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	buf := make([]byte, len(value))
	copy(buf, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = Item{
		Value:      buf,
		Expiration: s.now().Add(ttl).UnixNano(),
	}
}

// Get retrieves a value. Returns false if item exists but is expired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, found := s.items[key]
	if !found {
		return nil, false
	}

	if s.now().UnixNano() >= item.Expiration {
		return nil, false
	}

	out := make([]byte, len(item.Value))
	copy(out, item.Value)
	return out, true
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Cleanup removes expired items and returns how many were evicted.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UnixNano()
	evicted := 0
	for k, v := range s.items {
		if now >= v.Expiration {
			delete(s.items, k)
			evicted++
		}
	}
	return evicted
}

// StartCleanup sweeps expired entries every interval until ctx is done.
func (s *MemoryStore) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// NopStore never stores anything.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (NopStore) Set(context.Context, string, []byte, time.Duration) {}
