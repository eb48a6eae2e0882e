package chunks

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryRepo implements Repo with brute-force cosine similarity, for tests
// and DB-less development.
type MemoryRepo struct {
	mu        sync.RWMutex
	byDoc     map[string][]Chunk
	fileNames map[string]string
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byDoc:     make(map[string][]Chunk),
		fileNames: make(map[string]string),
	}
}

// SetFileName records the file name reported in search hits for a document.
func (r *MemoryRepo) SetFileName(documentID, fileName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fileNames[documentID] = fileName
}

// ReplaceForDocument swaps a document's chunk set.
func (r *MemoryRepo) ReplaceForDocument(ctx context.Context, documentID string, batch []Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]Chunk, len(batch))
	copy(stored, batch)
	r.byDoc[documentID] = stored
	return nil
}

// Search scans all chunks of the job and ranks them by cosine similarity.
func (r *MemoryRepo) Search(ctx context.Context, embedding []float32, params SearchParams) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Limit <= 0 {
		params.Limit = 8
	}

	allowed := map[string]bool{}
	for _, id := range params.DocumentIDs {
		allowed[id] = true
	}

	r.mu.RLock()
	var out []Hit
	for docID, docChunks := range r.byDoc {
		if len(allowed) > 0 && !allowed[docID] {
			continue
		}
		for _, c := range docChunks {
			if c.JobID != params.JobID {
				continue
			}
			sim := cosineSimilarity(embedding, c.Embedding)
			if params.MinSimilarity > 0 && sim < params.MinSimilarity {
				continue
			}
			out = append(out, Hit{
				Chunk:      c,
				FileName:   r.fileNames[docID],
				Similarity: sim,
			})
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	if len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

// DeleteByDocument removes all chunks of a document.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byDoc, documentID)
	return nil
}

// CountByDocument reports how many chunks a document has stored.
func (r *MemoryRepo) CountByDocument(ctx context.Context, documentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byDoc[documentID]), nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ Repo = (*MemoryRepo)(nil)
