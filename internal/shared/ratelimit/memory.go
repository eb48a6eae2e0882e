package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local fixed-window counter. Counts are not shared
// across server instances; use RedisStore for multi-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*windowCounter
	now     func() time.Time
}

type windowCounter struct {
	start time.Time
	count int
}

// NewMemoryStore constructs a MemoryStore. The now function may be nil.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		windows: make(map[string]*windowCounter),
		now:     now,
	}
}

// Incr increments the counter for key, rolling the window when it expires.
// Stale entries for other keys are dropped opportunistically.
func (s *MemoryStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return 0, time.Time{}, err
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.windows) > 1024 {
		for k, w := range s.windows {
			if now.Sub(w.start) >= window {
				delete(s.windows, k)
			}
		}
	}

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= window {
		w = &windowCounter{start: now}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.start.Add(window), nil
}

var _ Store = (*MemoryStore)(nil)
