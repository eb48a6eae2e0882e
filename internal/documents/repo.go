package documents

import "context"

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	// GetByID fetches a document scoped to its owner.
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	// GetAny fetches a document without an ownership check; the ingest
	// worker has no acting user.
	GetAny(ctx context.Context, documentID string) (Document, error)
	ListByJob(ctx context.Context, userID, jobID string) ([]Document, error)
	// MarkReady records successful ingestion.
	MarkReady(ctx context.Context, documentID string, pageCount int, extractedText string) error
	// MarkFailed records a terminal ingestion failure.
	MarkFailed(ctx context.Context, documentID, message string) error
	Delete(ctx context.Context, userID, documentID string) error
	// CountReadyByJob reports how many searchable documents a job has.
	CountReadyByJob(ctx context.Context, jobID string) (int, error)
}
