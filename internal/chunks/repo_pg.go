package chunks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// PGRepo implements Repo on Postgres with the pgvector extension.
type PGRepo struct {
	DB *sql.DB
}

// ReplaceForDocument atomically swaps a document's chunk set inside one
// transaction.
func (r *PGRepo) ReplaceForDocument(ctx context.Context, documentID string, batch []Chunk) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete existing chunks: %w", err)
	}

	const insert = `
INSERT INTO chunks (id, document_id, job_id, chunk_index, content, page, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, c := range batch {
		var page sql.NullInt32
		if c.Page > 0 {
			page = sql.NullInt32{Int32: int32(c.Page), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, insert,
			c.ID,
			c.DocumentID,
			c.JobID,
			c.Index,
			c.Content,
			page,
			pgvector.NewVector(c.Embedding),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}

	return tx.Commit()
}

// Search orders by cosine distance and converts it to similarity. The
// ivfflat index on chunks.embedding serves the ORDER BY.
func (r *PGRepo) Search(ctx context.Context, embedding []float32, params SearchParams) ([]Hit, error) {
	if params.Limit <= 0 {
		params.Limit = 8
	}

	query := `
SELECT c.id, c.document_id, c.job_id, c.chunk_index, c.content, c.page,
       d.file_name,
       1 - (c.embedding <=> $1) AS similarity
FROM chunks c
JOIN documents d ON d.id = c.document_id
WHERE c.job_id = $2`
	args := []any{pgvector.NewVector(embedding), params.JobID}

	if len(params.DocumentIDs) > 0 {
		placeholders := ""
		for i, id := range params.DocumentIDs {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += fmt.Sprintf("$%d", len(args)+1)
			args = append(args, id)
		}
		query += fmt.Sprintf(" AND c.document_id IN (%s)", placeholders)
	}
	if params.MinSimilarity > 0 {
		query += fmt.Sprintf(" AND 1 - (c.embedding <=> $1) >= $%d", len(args)+1)
		args = append(args, params.MinSimilarity)
	}
	query += fmt.Sprintf(" ORDER BY c.embedding <=> $1 LIMIT $%d", len(args)+1)
	args = append(args, params.Limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var hit Hit
		var page sql.NullInt32
		if err := rows.Scan(
			&hit.Chunk.ID,
			&hit.Chunk.DocumentID,
			&hit.Chunk.JobID,
			&hit.Chunk.Index,
			&hit.Chunk.Content,
			&page,
			&hit.FileName,
			&hit.Similarity,
		); err != nil {
			return nil, err
		}
		if page.Valid {
			hit.Chunk.Page = int(page.Int32)
		}
		out = append(out, hit)
	}
	return out, rows.Err()
}

// DeleteByDocument removes all chunks of a document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	return err
}

// CountByDocument reports how many chunks a document has stored.
func (r *PGRepo) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE document_id = $1`, documentID).Scan(&count)
	return count, err
}

var _ Repo = (*PGRepo)(nil)
