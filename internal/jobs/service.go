package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 20000
)

// Service holds job business logic.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Create validates and stores a new job.
func (s *Service) Create(ctx context.Context, userID, title, description, kind string) (Job, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	kind = normalizeKind(kind)

	if userID == "" {
		return Job{}, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}
	if title == "" {
		return Job{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(title) > maxTitleLen {
		return Job{}, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, maxTitleLen)
	}
	if description == "" {
		return Job{}, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if len(description) > maxDescriptionLen {
		return Job{}, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionLen)
	}
	if kind == "" {
		return Job{}, fmt.Errorf("%w: kind must be %q or %q", ErrInvalidInput, KindJob, KindInternship)
	}

	job := Job{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Kind:        kind,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Get fetches a single job owned by the user.
func (s *Service) Get(ctx context.Context, userID, jobID string) (Job, error) {
	if userID == "" || jobID == "" {
		return Job{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, jobID)
}

// List returns the user's jobs, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Job, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Update rewrites a job's title, description, and kind.
func (s *Service) Update(ctx context.Context, userID, jobID, title, description, kind string) (Job, error) {
	if userID == "" || jobID == "" {
		return Job{}, ErrInvalidInput
	}

	existing, err := s.Repo.GetByID(ctx, userID, jobID)
	if err != nil {
		return Job{}, err
	}

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title != "" {
		if len(title) > maxTitleLen {
			return Job{}, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, maxTitleLen)
		}
		existing.Title = title
	}
	if description != "" {
		if len(description) > maxDescriptionLen {
			return Job{}, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionLen)
		}
		existing.Description = description
	}
	if kind != "" {
		normalized := normalizeKind(kind)
		if normalized == "" {
			return Job{}, fmt.Errorf("%w: kind must be %q or %q", ErrInvalidInput, KindJob, KindInternship)
		}
		existing.Kind = normalized
	}

	if err := s.Repo.Update(ctx, existing); err != nil {
		return Job{}, err
	}
	return existing, nil
}

// Delete removes a job and everything attached to it.
func (s *Service) Delete(ctx context.Context, userID, jobID string) error {
	if userID == "" || jobID == "" {
		return ErrInvalidInput
	}
	return s.Repo.Delete(ctx, userID, jobID)
}

func normalizeKind(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindJob:
		return KindJob
	case KindInternship:
		return KindInternship
	default:
		return ""
	}
}
