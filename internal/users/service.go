package users

import (
	"context"
	"errors"
	"strings"

	"screener-backend/internal/usage"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the user identity from OAuth to stabilize history
// and usage ownership.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}

// TierFor resolves the effective tier for any principal. Guests and users
// without a stored row screen at the free tier.
func (s *Service) TierFor(ctx context.Context, userID string) string {
	if s == nil || s.Repo == nil {
		return usage.TierFree
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil || user.Tier == "" {
		return usage.TierFree
	}
	return user.Tier
}

// SetTier changes a user's subscription tier.
func (s *Service) SetTier(ctx context.Context, userID, tier string) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if tier != usage.TierFree && tier != usage.TierPro {
		return errors.New("unknown tier")
	}
	return s.Repo.SetTier(ctx, userID, tier)
}
