package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PGRepo implements Repo using Postgres. Sources are stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new query record.
func (r *PGRepo) Create(ctx context.Context, q Query) error {
	sources := q.Sources
	if sources == nil {
		sources = []Source{}
	}
	payload, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	const query = `
INSERT INTO queries (id, job_id, user_id, kind, question, answer, sources, tokens_used, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.DB.ExecContext(ctx, query,
		q.ID,
		q.JobID,
		q.UserID,
		q.Kind,
		q.Question,
		q.Answer,
		payload,
		q.TokensUsed,
		q.CreatedAt,
	)
	return err
}

// ListByJob returns a job's queries, newest first.
func (r *PGRepo) ListByJob(ctx context.Context, userID, jobID string, limit, offset int) ([]Query, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, job_id, user_id, kind, question, answer, sources, tokens_used, created_at
FROM queries
WHERE user_id = $1 AND job_id = $2
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

	rows, err := r.DB.QueryContext(ctx, query, userID, jobID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Query
	for rows.Next() {
		var q Query
		var sources []byte
		if err := rows.Scan(
			&q.ID,
			&q.JobID,
			&q.UserID,
			&q.Kind,
			&q.Question,
			&q.Answer,
			&sources,
			&q.TokensUsed,
			&q.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &q.Sources); err != nil {
				return nil, fmt.Errorf("unmarshal sources for %s: %w", q.ID, err)
			}
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
