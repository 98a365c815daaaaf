package cache

import (
	"context"
	"sync"
	"time"

	"socialhub/domain/repository"
)

type pendingEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryPendingState keeps OAuth flow state in process memory. Expired
// entries are invisible to readers and removed by Sweep.
type MemoryPendingState struct {
	mu      sync.Mutex
	entries map[string]pendingEntry
	now     func() time.Time
}

func NewMemoryPendingState() *MemoryPendingState {
	return &MemoryPendingState{entries: make(map[string]pendingEntry), now: time.Now}
}

var _ repository.IPendingState = (*MemoryPendingState)(nil)

func (s *MemoryPendingState) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := pendingEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *MemoryPendingState) Peek(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	return e.value, ok, nil
}

func (s *MemoryPendingState) Take(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	delete(s.entries, key)
	return e.value, ok, nil
}

func (s *MemoryPendingState) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired entries and reports how many were removed.
func (s *MemoryPendingState) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k := range s.entries {
		if _, ok := s.live(k); !ok {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// live must be called with mu held.
func (s *MemoryPendingState) live(key string) (pendingEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return pendingEntry{}, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		return pendingEntry{}, false
	}
	return e, true
}
