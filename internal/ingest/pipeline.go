package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"screener-backend/internal/chunker"
	"screener-backend/internal/chunks"
	"screener-backend/internal/documents"
	"screener-backend/internal/extract"
	"screener-backend/internal/llm"
	"screener-backend/internal/shared/metrics"
	"screener-backend/internal/shared/storage/object"
	"screener-backend/internal/shared/telemetry"
)

const embedTimeout = 30 * time.Second

// failure messages stored on the document for the owner to read.
const (
	msgNoText        = "no extractable text found in the file"
	msgExtractFailed = "the file could not be read"
	msgEmbedFailed   = "the file could not be indexed, try uploading again"
)

// Pipeline turns an uploaded document into searchable chunks: extract,
// clean, split, embed, store. Any failure marks the document failed with a
// user-readable message; success marks it ready.
type Pipeline struct {
	Documents documents.Repo
	Chunks    chunks.Repo
	Store     object.ObjectStore
	Embedder  llm.Embedder
	Splitter  *chunker.Splitter
}

// Process ingests one document by ID. The returned error is for the queue
// layer's retry accounting; the document status is already final when it
// returns.
func (p *Pipeline) Process(ctx context.Context, documentID string) error {
	metrics.IncIngestStarted()
	started := time.Now()

	doc, err := p.Documents.GetAny(ctx, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			// Deleted between enqueue and processing; nothing to do.
			telemetry.Info("ingest skipped, document gone", map[string]any{"documentId": documentID})
			return nil
		}
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	res, err := extract.FromStore(ctx, p.Store, doc.StorageKey, doc.MimeType, doc.FileName)
	if err != nil {
		return p.fail(ctx, doc, msgExtractFailed, err)
	}

	text := chunker.Clean(res.Text)
	pieces := p.Splitter.Split(text, res.PageOffsets)
	if len(pieces) == 0 {
		return p.fail(ctx, doc, msgNoText, errors.New("zero chunks after cleaning"))
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Content
	}

	embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()
	vectors, err := p.Embedder.EmbedBatch(embedCtx, texts)
	if err != nil {
		return p.fail(ctx, doc, msgEmbedFailed, err)
	}
	if len(vectors) != len(pieces) {
		return p.fail(ctx, doc, msgEmbedFailed, fmt.Errorf("expected %d vectors, got %d", len(pieces), len(vectors)))
	}

	batch := make([]chunks.Chunk, len(pieces))
	for i, piece := range pieces {
		batch[i] = chunks.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			JobID:      doc.JobID,
			Index:      piece.Index,
			Content:    piece.Content,
			Page:       piece.Page,
			Embedding:  vectors[i],
		}
	}
	if err := p.Chunks.ReplaceForDocument(ctx, doc.ID, batch); err != nil {
		return p.fail(ctx, doc, msgEmbedFailed, err)
	}

	if err := p.Documents.MarkReady(ctx, doc.ID, res.PageCount, text); err != nil {
		return fmt.Errorf("mark ready %s: %w", doc.ID, err)
	}

	metrics.IncIngestCompleted()
	metrics.ObserveIngestDurationMs(float64(time.Since(started).Milliseconds()))
	telemetry.Info("document ingested", map[string]any{
		"documentId": doc.ID,
		"jobId":      doc.JobID,
		"chunks":     len(batch),
		"pages":      res.PageCount,
	})
	return nil
}

// fail finalizes the document and reports the underlying cause upward.
func (p *Pipeline) fail(ctx context.Context, doc documents.Document, message string, cause error) error {
	metrics.IncIngestFailed()
	telemetry.Error("document ingest failed", map[string]any{
		"documentId": doc.ID,
		"jobId":      doc.JobID,
		"reason":     message,
		"error":      cause.Error(),
	})
	if err := p.Documents.MarkFailed(context.WithoutCancel(ctx), doc.ID, message); err != nil {
		return fmt.Errorf("mark failed %s after %v: %w", doc.ID, cause, err)
	}
	return fmt.Errorf("ingest %s: %s: %w", doc.ID, message, cause)
}
