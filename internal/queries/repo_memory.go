package queries

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo implements Repo in memory for tests and DB-less development.
type MemoryRepo struct {
	mu      sync.RWMutex
	queries []Query
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create stores a new query record.
func (r *MemoryRepo) Create(ctx context.Context, q Query) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	return nil
}

// ListByJob returns a job's queries, newest first.
func (r *MemoryRepo) ListByJob(ctx context.Context, userID, jobID string, limit, offset int) ([]Query, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	var out []Query
	for _, q := range r.queries {
		if q.UserID == userID && q.JobID == jobID {
			out = append(out, q)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
