package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounterStore is an in-process CounterStore for tests and single-node
// deployments without Redis. Expiry is checked lazily on access, which is
// enough because a window's key is never read after the window has passed.
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*memoryCounter
	now     func() time.Time
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		entries: make(map[string]*memoryCounter),
		now:     time.Now,
	}
}

func (s *MemoryCounterStore) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &memoryCounter{expiresAt: now.Add(expiry)}
		s.entries[key] = entry
	}

	entry.count++
	return entry.count, nil
}

// Len reports how many live counter keys the store holds.
func (s *MemoryCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := s.now()
	for _, entry := range s.entries {
		if !now.After(entry.expiresAt) {
			n++
		}
	}
	return n
}
