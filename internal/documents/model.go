package documents

import "time"

// Document lifecycle states. Uploads start in processing; the ingest
// worker moves them to ready or failed.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// Document is one uploaded resume scoped to a job.
type Document struct {
	ID            string
	JobID         string
	UserID        string
	FileName      string
	MimeType      string
	SizeBytes     int64
	PageCount     int
	StorageKey    string
	ExtractedText string
	Status        string
	ErrorMessage  string
	CreatedAt     time.Time
}
