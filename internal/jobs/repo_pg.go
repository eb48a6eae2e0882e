package jobs

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new job.
func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO jobs (id, user_id, title, description, kind, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query, job.ID, job.UserID, job.Title, job.Description, job.Kind, job.CreatedAt)
	return err
}

// GetByID fetches a job by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, jobID string) (Job, error) {
	const query = `
SELECT id, user_id, title, description, kind, created_at
FROM jobs
WHERE user_id = $1 AND id = $2
LIMIT 1`
	var job Job
	err := r.DB.QueryRowContext(ctx, query, userID, jobID).Scan(
		&job.ID,
		&job.UserID,
		&job.Title,
		&job.Description,
		&job.Kind,
		&job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return job, nil
}

// ListByUser lists jobs ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, user_id, title, description, kind, created_at
FROM jobs
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.UserID, &job.Title, &job.Description, &job.Kind, &job.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// Update rewrites a job's mutable fields.
func (r *PGRepo) Update(ctx context.Context, job Job) error {
	const query = `
UPDATE jobs
SET title = $1, description = $2, kind = $3
WHERE user_id = $4 AND id = $5`
	res, err := r.DB.ExecContext(ctx, query, job.Title, job.Description, job.Kind, job.UserID, job.ID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a job. Documents, chunks, and queries cascade in the
// database.
func (r *PGRepo) Delete(ctx context.Context, userID, jobID string) error {
	const query = `DELETE FROM jobs WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, jobID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
