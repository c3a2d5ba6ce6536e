// internal/ratelimit/store.go
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// sweepSampleRate makes roughly 1 in N writes trigger a sweep of
// expired entries. Garbage collection is opportunistic, not
// deterministic: entries are cheap and bounded by active-client
// cardinality.
const sweepSampleRate = 100

// MemoryStore is the process-local store for single-instance
// deployments. Limits are enforced per process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	me, ok := s.entries[key]
	if !ok || s.now().After(me.expiresAt) {
		return nil, nil
	}
	e := me.entry
	return &e, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		entry:     *entry,
		expiresAt: s.now().Add(ttl),
	}

	if rand.Intn(sweepSampleRate) == 0 {
		s.sweepLocked()
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// sweepLocked drops expired, non-blocked entries. Callers hold the
// write lock.
func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for key, me := range s.entries {
		if me.entry.Blocked && now.Before(me.entry.BlockUntil) {
			continue
		}
		if now.After(me.expiresAt) {
			delete(s.entries, key)
		}
	}
}
