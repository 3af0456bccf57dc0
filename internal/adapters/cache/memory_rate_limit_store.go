package cache

import (
	"context"
	"sync"
	"time"
)

type windowState struct {
	count     int
	expiresAt time.Time
}

// MemoryRateLimitStore is the in-process rate-limit backend used by tests and
// single-node deployments. One mutex is held across the whole
// read-modify-write so concurrent callers on the same key serialize.
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	windows map[string]windowState
	nowFn   func() time.Time
}

// NewMemoryRateLimitStore creates an empty in-memory store.
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		windows: make(map[string]windowState),
		nowFn:   time.Now,
	}
}

// SetClock overrides the time source; tests use it to cross window boundaries.
func (s *MemoryRateLimitStore) SetClock(nowFn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = nowFn
}

func (s *MemoryRateLimitStore) CheckAndIncrement(_ context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	state, ok := s.windows[key]
	if !ok || !state.expiresAt.After(now) {
		state = windowState{count: 0, expiresAt: now.Add(window)}
	}
	if state.count >= limit {
		// Denied without mutating: the window keeps its original expiry.
		return false, state.count, nil
	}
	state.count++
	s.windows[key] = state
	return true, state.count, nil
}
