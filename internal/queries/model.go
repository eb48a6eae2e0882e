package queries

import "time"

// Query kinds.
const (
	KindChat    = "chat"
	KindRanking = "ranking"
)

// Source is one cited resume location backing an answer.
type Source struct {
	DocumentID string `json:"documentId"`
	FileName   string `json:"fileName"`
	// Page is the cited 1-based page, 0 when unknown.
	Page int `json:"page,omitempty"`
	// Snippet is the start of the best-matching chunk.
	Snippet    string  `json:"snippet,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// Query is one persisted question-and-answer exchange. Ranking runs are
// stored with KindRanking and the serialized result as the answer.
type Query struct {
	ID         string
	JobID      string
	UserID     string
	Kind       string
	Question   string
	Answer     string
	Sources    []Source
	TokensUsed int
	CreatedAt  time.Time
}
