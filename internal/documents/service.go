package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"screener-backend/internal/chunks"
	"screener-backend/internal/extract"
	"screener-backend/internal/jobs"
	"screener-backend/internal/shared/storage/object"
	"screener-backend/internal/shared/telemetry"
)

// MaxUploadSize bounds a single resume upload.
const MaxUploadSize = 10 << 20 // 10MB

// Enqueuer hands documents to the ingest pipeline.
type Enqueuer interface {
	EnqueueIngest(ctx context.Context, documentID string) error
}

// Service holds document business logic.
type Service struct {
	Repo      Repo
	JobsRepo  jobs.Repo
	Chunks    chunks.Repo
	Store     object.ObjectStore
	Enqueuer  Enqueuer
}

// Upload stores the file, creates a processing-state record, and enqueues
// ingestion. The response reflects the record before any extraction runs.
func (s *Service) Upload(ctx context.Context, userID, jobID, fileName, mimeType string, size int64, file io.Reader) (Document, error) {
	fileName = strings.TrimSpace(fileName)
	if userID == "" || jobID == "" {
		return Document{}, ErrInvalidInput
	}
	if fileName == "" {
		return Document{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if size > MaxUploadSize {
		return Document{}, ErrTooLarge
	}
	if !extract.Supported(mimeType, fileName) {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	if _, err := s.JobsRepo.GetByID(ctx, userID, jobID); err != nil {
		return Document{}, err
	}

	storageKey, storedSize, detectedMime, err := s.Store.Save(ctx, userID, fileName, io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return Document{}, fmt.Errorf("store upload: %w", err)
	}
	if storedSize > MaxUploadSize {
		return Document{}, ErrTooLarge
	}
	if mimeType == "" {
		mimeType = detectedMime
	}

	doc := Document{
		ID:         uuid.NewString(),
		JobID:      jobID,
		UserID:     userID,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  storedSize,
		StorageKey: storageKey,
		Status:     StatusProcessing,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	if err := s.Enqueuer.EnqueueIngest(ctx, doc.ID); err != nil {
		// The record exists and can be retried; surface the failure on the
		// document instead of dropping the upload.
		telemetry.Error("ingest enqueue failed", map[string]any{"documentId": doc.ID, "error": err.Error()})
		_ = s.Repo.MarkFailed(ctx, doc.ID, "ingestion could not be scheduled")
		doc.Status = StatusFailed
		doc.ErrorMessage = "ingestion could not be scheduled"
	}
	return doc, nil
}

// Get fetches a single document, checking job scope.
func (s *Service) Get(ctx context.Context, userID, jobID, documentID string) (Document, error) {
	if userID == "" || jobID == "" || documentID == "" {
		return Document{}, ErrInvalidInput
	}
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return Document{}, err
	}
	if doc.JobID != jobID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// List returns a job's documents, newest first.
func (s *Service) List(ctx context.Context, userID, jobID string) ([]Document, error) {
	if userID == "" || jobID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.JobsRepo.GetByID(ctx, userID, jobID); err != nil {
		return nil, err
	}
	return s.Repo.ListByJob(ctx, userID, jobID)
}

// Delete removes a document and its chunks.
func (s *Service) Delete(ctx context.Context, userID, jobID, documentID string) error {
	doc, err := s.Get(ctx, userID, jobID, documentID)
	if err != nil {
		return err
	}
	// Chunks also cascade at the database level; the explicit delete keeps
	// the memory repos consistent.
	if err := s.Chunks.DeleteByDocument(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, userID, doc.ID); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
		// The record is gone; an orphaned blob is not worth failing the call.
		telemetry.Error("stored object delete failed", map[string]any{
			"documentId": doc.ID,
			"storageKey": doc.StorageKey,
			"error":      err.Error(),
		})
	}
	return nil
}
