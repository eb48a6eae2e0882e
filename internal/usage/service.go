package usage

import (
	"context"
	"time"
)

// Service enforces monthly query quotas.
type Service struct {
	Repo Repo
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get returns the user's current counter without consuming anything.
func (s *Service) Get(ctx context.Context, userID, tier string) (Usage, error) {
	return s.Repo.Get(ctx, userID, tier, s.now())
}

// Consume spends one query from the monthly allowance, or returns
// ErrQuotaExceeded without consuming when nothing is left.
func (s *Service) Consume(ctx context.Context, userID, tier string) (Usage, error) {
	now := s.now()
	current, err := s.Repo.Get(ctx, userID, tier, now)
	if err != nil {
		return Usage{}, err
	}
	if current.Remaining() <= 0 {
		return current, ErrQuotaExceeded
	}
	return s.Repo.Increment(ctx, userID, tier, now)
}
