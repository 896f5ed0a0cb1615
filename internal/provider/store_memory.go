package provider

import (
	"context"
	"sync"
	"time"

	"fxresolver/internal/rate"
)

var _ Store = (*MemoryStore)(nil)

type memoryEntry struct {
	rate      rate.ExchangeRate
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Entries are immutable values that
// are swapped in whole under the write lock.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[CacheKey]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[CacheKey]memoryEntry),
		now:     time.Now,
	}
}

// Get returns a live entry for key.
func (s *MemoryStore) Get(_ context.Context, key CacheKey) (rate.ExchangeRate, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expiresAt) {
		return rate.ExchangeRate{}, false
	}
	return e.rate, true
}

// Set stores r for ttl, dropping expired entries while it holds the lock.
func (s *MemoryStore) Set(_ context.Context, key CacheKey, r rate.ExchangeRate, ttl time.Duration) error {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[key] = memoryEntry{rate: r, expiresAt: now.Add(ttl)}
	return nil
}

// Len is the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
