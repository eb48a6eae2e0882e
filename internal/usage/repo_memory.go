package usage

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo implements Repo in memory for tests and DB-less development.
type MemoryRepo struct {
	mu       sync.Mutex
	counters map[string]Usage
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{counters: make(map[string]Usage)}
}

// Get returns the user's current counter, resetting lapsed periods.
func (r *MemoryRepo) Get(ctx context.Context, userID, tier string, now time.Time) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentLocked(userID, tier, now), nil
}

// Increment adds one consumed query.
func (r *MemoryRepo) Increment(ctx context.Context, userID, tier string, now time.Time) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.currentLocked(userID, tier, now)
	current.Used++
	r.counters[userID] = current
	return current, nil
}

func (r *MemoryRepo) currentLocked(userID, tier string, now time.Time) Usage {
	start := periodStart(now)
	current, ok := r.counters[userID]
	if !ok || !current.PeriodStart.Equal(start) {
		current = Usage{
			UserID:      userID,
			PeriodStart: start,
		}
	}
	// A tier change mid-month keeps spent queries and adopts the new limit.
	current.Tier = tier
	current.Limit = LimitForTier(tier)
	r.counters[userID] = current
	return current
}

var _ Repo = (*MemoryRepo)(nil)
