package ratelimit

import (
	"context"
	"time"
)

// Store counts requests per key within a fixed window. Implementations must
// return the count after incrementing, so a caller can compare against its
// quota without a second round trip.
type Store interface {
	// Incr increments the counter for key in the window containing now and
	// returns the new count plus the time at which the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}
