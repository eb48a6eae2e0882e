package queries

import "errors"

var (
	ErrNotFound     = errors.New("query not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoDocuments indicates the job has no ready documents to search.
	ErrNoDocuments = errors.New("no ready documents")
	// ErrProRequired marks features gated to the pro tier.
	ErrProRequired = errors.New("pro tier required")
)
