package queries

import "context"

// Repo defines persistence operations for queries.
type Repo interface {
	Create(ctx context.Context, q Query) error
	// ListByJob returns a job's queries, newest first.
	ListByJob(ctx context.Context, userID, jobID string, limit, offset int) ([]Query, error)
}
