package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a fixed-window limiter backed by a process-local map.
// Suitable for single-instance deployments; multi-instance deployments should
// use RedisStore so all instances share one window.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window

	// clock is injectable for deterministic tests.
	clock func() time.Time

	// lastSweep bounds map growth: expired windows are dropped at most once
	// per sweepInterval, piggybacked on Check calls.
	lastSweep     time.Time
	sweepInterval time.Duration
}

type window struct {
	count   int
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows:       make(map[string]*window),
		clock:         time.Now,
		sweepInterval: time.Minute,
	}
}

func (s *MemoryStore) Check(ctx context.Context, key string, limit int, windowDur time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	s.maybeSweep(now)

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(windowDur)}
		s.windows[key] = w
		return Result{Allowed: true, Remaining: limit - 1, ResetAt: w.resetAt}, nil
	}

	w.count++
	if w.count > limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: w.resetAt}, nil
	}
	return Result{Allowed: true, Remaining: limit - w.count, ResetAt: w.resetAt}, nil
}

func (s *MemoryStore) maybeSweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.sweepInterval {
		return
	}
	s.lastSweep = now
	for k, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, k)
		}
	}
}

// SetClock overrides the time source. Test use only.
func (s *MemoryStore) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}
