package chunks

import "context"

// Repo defines persistence and similarity search for chunks.
type Repo interface {
	// ReplaceForDocument atomically deletes a document's existing chunks
	// and inserts the given set. Either all chunks land or none do.
	ReplaceForDocument(ctx context.Context, documentID string, batch []Chunk) error
	// Search returns the chunks closest to the query embedding, best first.
	Search(ctx context.Context, embedding []float32, params SearchParams) ([]Hit, error)
	// DeleteByDocument removes all chunks of a document.
	DeleteByDocument(ctx context.Context, documentID string) error
	// CountByDocument reports how many chunks a document has stored.
	CountByDocument(ctx context.Context, documentID string) (int, error)
}
