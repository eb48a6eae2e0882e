package retrieval

import (
	"context"
	"fmt"
	"sort"

	"screener-backend/internal/chunks"
	"screener-backend/internal/llm"
)

// maxChunksPerDocument caps how many chunks of a single resume can occupy
// the context window, so one long document cannot crowd out the rest.
const maxChunksPerDocument = 3

// Profile tunes a retrieval pass for its consumer.
type Profile struct {
	// Limit is the number of raw hits fetched before dedup.
	Limit int
	// MinSimilarity drops weak hits; zero disables the cutoff.
	MinSimilarity float64
}

// ChatProfile keeps recall high for ad-hoc questions.
var ChatProfile = Profile{Limit: 8}

// RankingProfile fetches wide so every resume in the job can surface, and
// filters noise with a similarity floor.
var RankingProfile = Profile{Limit: 60, MinSimilarity: 0.3}

// Retriever embeds a query and returns the most relevant chunks.
type Retriever struct {
	Embedder llm.Embedder
	Chunks   chunks.Repo
}

// Retrieve runs one similarity search. Results are deduplicated to at most
// maxChunksPerDocument chunks per document and ordered by similarity,
// best first.
func (r *Retriever) Retrieve(ctx context.Context, jobID, query string, profile Profile) ([]chunks.Hit, error) {
	embedding, err := r.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.Chunks.Search(ctx, embedding, chunks.SearchParams{
		JobID:         jobID,
		Limit:         profile.Limit,
		MinSimilarity: profile.MinSimilarity,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	return DedupByDocument(hits, maxChunksPerDocument), nil
}

// DedupByDocument keeps at most perDoc chunks per document, preferring
// higher similarity, and returns the survivors ordered by similarity.
func DedupByDocument(hits []chunks.Hit, perDoc int) []chunks.Hit {
	if perDoc <= 0 {
		perDoc = maxChunksPerDocument
	}

	sorted := make([]chunks.Hit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Similarity > sorted[j].Similarity
	})

	counts := make(map[string]int)
	out := make([]chunks.Hit, 0, len(sorted))
	for _, hit := range sorted {
		if counts[hit.Chunk.DocumentID] >= perDoc {
			continue
		}
		counts[hit.Chunk.DocumentID]++
		out = append(out, hit)
	}
	return out
}

// DistinctDocuments counts how many documents the hits span.
func DistinctDocuments(hits []chunks.Hit) int {
	seen := make(map[string]bool)
	for _, hit := range hits {
		seen[hit.Chunk.DocumentID] = true
	}
	return len(seen)
}
