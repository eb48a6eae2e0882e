package documents

import (
	"context"
	"database/sql"
	"errors"
)

const documentColumns = `id, job_id, user_id, file_name, mime_type, size_bytes, page_count, storage_key, extracted_text, status, error_message, created_at`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document in processing state.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, job_id, user_id, file_name, mime_type, size_bytes, storage_key, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.JobID,
		doc.UserID,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		doc.StorageKey,
		doc.Status,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document scoped to its owner.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID, documentID))
}

// GetAny fetches a document without an ownership check.
func (r *PGRepo) GetAny(ctx context.Context, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, documentID))
}

// ListByJob lists a job's documents ordered newest-first.
func (r *PGRepo) ListByJob(ctx context.Context, userID, jobID string) ([]Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND job_id = $2
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// MarkReady records successful ingestion.
func (r *PGRepo) MarkReady(ctx context.Context, documentID string, pageCount int, extractedText string) error {
	const query = `
UPDATE documents
SET status = $1, page_count = $2, extracted_text = $3, error_message = ''
WHERE id = $4`
	res, err := r.DB.ExecContext(ctx, query, StatusReady, pageCount, extractedText, documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed records a terminal ingestion failure.
func (r *PGRepo) MarkFailed(ctx context.Context, documentID, message string) error {
	const query = `
UPDATE documents
SET status = $1, error_message = $2
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, StatusFailed, message, documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document. Chunks cascade in the database.
func (r *PGRepo) Delete(ctx context.Context, userID, documentID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE user_id = $1 AND id = $2`, userID, documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountReadyByJob reports how many searchable documents a job has.
func (r *PGRepo) CountReadyByJob(ctx context.Context, jobID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE job_id = $1 AND status = $2`,
		jobID, StatusReady,
	).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row rowScanner) (Document, error) {
	var doc Document
	var pageCount sql.NullInt32
	var extractedText sql.NullString
	var errorMessage sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.JobID,
		&doc.UserID,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&pageCount,
		&doc.StorageKey,
		&extractedText,
		&doc.Status,
		&errorMessage,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if pageCount.Valid {
		doc.PageCount = int(pageCount.Int32)
	}
	if extractedText.Valid {
		doc.ExtractedText = extractedText.String
	}
	if errorMessage.Valid {
		doc.ErrorMessage = errorMessage.String
	}
	return doc, nil
}

var _ Repo = (*PGRepo)(nil)
