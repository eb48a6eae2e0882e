package chunks

// Chunk is an embedded slice of a document, stored for similarity search.
type Chunk struct {
	ID         string
	DocumentID string
	JobID      string
	Index      int
	Content    string
	// Page is the estimated 1-based page number, 0 when unknown.
	Page      int
	Embedding []float32
}

// Hit is one similarity-search result. Similarity is cosine similarity in
// [-1, 1], higher is closer.
type Hit struct {
	Chunk      Chunk
	FileName   string
	Similarity float64
}

// SearchParams narrow a similarity search.
type SearchParams struct {
	JobID string
	// DocumentIDs restricts the search to the given documents when
	// non-empty.
	DocumentIDs []string
	// Limit is the maximum number of hits returned.
	Limit int
	// MinSimilarity drops hits below this cosine similarity.
	MinSimilarity float64
}
