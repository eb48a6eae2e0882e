package usage

import (
	"context"
	"time"
)

// Repo defines persistence for usage counters.
type Repo interface {
	// Get returns the user's counter for the month containing now,
	// creating a fresh one at the tier's limit if none exists or the
	// stored period has lapsed.
	Get(ctx context.Context, userID, tier string, now time.Time) (Usage, error)
	// Increment adds one consumed query to the current month's counter.
	Increment(ctx context.Context, userID, tier string, now time.Time) (Usage, error)
}
