package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/invopay/internal/clock"
)

type memoryEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps counters in a process-local map. Suitable for
// single-instance deployments only; each replica counts independently.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	blocks  map[string]time.Time
	clock   clock.Clock
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(c clock.Clock) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		blocks:  make(map[string]time.Time),
		clock:   c,
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &memoryEntry{resetAt: now.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return e.count, e.resetAt, nil
}

func (s *MemoryStore) SetBlock(_ context.Context, key string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[key] = until
	return nil
}

func (s *MemoryStore) GetBlock(_ context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.blocks[key]
	if !ok {
		return time.Time{}, nil
	}
	if !s.clock.Now().Before(until) {
		delete(s.blocks, key)
		return time.Time{}, nil
	}
	return until, nil
}

// Sweep drops entries whose window or block has elapsed so an idle
// process does not accumulate dead keys forever.
func (s *MemoryStore) Sweep(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
		}
	}
	for key, until := range s.blocks {
		if !now.Before(until) {
			delete(s.blocks, key)
		}
	}
}
