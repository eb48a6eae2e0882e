package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"screener-backend/internal/chunks"
	"screener-backend/internal/jobs"
	"screener-backend/internal/llm"
	"screener-backend/internal/prompts"
	"screener-backend/internal/queries"
	"screener-backend/internal/retrieval"
	"screener-backend/internal/shared/metrics"
	"screener-backend/internal/shared/telemetry"
	"screener-backend/internal/usage"
)

const (
	rankTimeout = 60 * time.Second
	maxQueryLen = 500
	// minEvidenceDocuments is the smallest pool worth comparing; ranking a
	// single resume against itself produces a meaningless ordering.
	minEvidenceDocuments = 2

	// WarningInsufficientEvidence is surfaced when too few resumes matched.
	WarningInsufficientEvidence = "Not enough resumes matched the job description to produce a comparison. Upload more resumes or broaden the description."
)

// ErrLLMFailed marks completion or schema failures the caller may retry.
var ErrLLMFailed = errors.New("ranking model call failed")

// TierResolver maps a principal to its subscription tier.
type TierResolver interface {
	TierFor(ctx context.Context, userID string) string
}

// Result is one completed screening run.
type Result struct {
	QueryID    string
	Candidates []Candidate
	Warning    string
	TokensUsed int
	CreatedAt  time.Time
}

// Service runs the ranking pipeline: retrieve, prompt, complete, parse,
// normalize, persist.
type Service struct {
	JobsRepo  jobs.Repo
	Queries   queries.Repo
	Retriever *retrieval.Retriever
	Chat      llm.Chat
	Usage     *usage.Service
	Tiers     TierResolver
}

// Rank screens every indexed resume of a job. An optional query narrows
// retrieval; when empty, the job description drives it.
func (s *Service) Rank(ctx context.Context, userID, jobID, query string) (Result, error) {
	if userID == "" || jobID == "" {
		return Result{}, jobs.ErrInvalidInput
	}
	query = strings.TrimSpace(query)
	if len(query) > maxQueryLen {
		return Result{}, jobs.ErrInvalidInput
	}

	job, err := s.JobsRepo.GetByID(ctx, userID, jobID)
	if err != nil {
		return Result{}, err
	}

	tier := s.Tiers.TierFor(ctx, userID)
	if _, err := s.Usage.Consume(ctx, userID, tier); err != nil {
		return Result{}, err
	}

	started := time.Now()
	result, err := s.rank(ctx, userID, job, query)
	if err != nil {
		metrics.IncQueryFailed()
		return Result{}, err
	}
	metrics.IncRanking()
	metrics.ObserveQueryDurationMs(float64(time.Since(started).Milliseconds()))
	return result, nil
}

func (s *Service) rank(ctx context.Context, userID string, job jobs.Job, query string) (Result, error) {
	needle := query
	if needle == "" {
		needle = job.Description
	}
	hits, err := s.Retriever.Retrieve(ctx, job.ID, needle, retrieval.RankingProfile)
	if err != nil {
		return Result{}, err
	}

	if len(hits) == 0 {
		return s.persist(ctx, userID, job, query, Result{Candidates: []Candidate{}}, nil), nil
	}
	if retrieval.DistinctDocuments(hits) < minEvidenceDocuments {
		return s.persist(ctx, userID, job, query, Result{
			Candidates: []Candidate{},
			Warning:    WarningInsufficientEvidence,
		}, nil), nil
	}

	excerpts := prompts.BuildExcerpts(hits)
	system := prompts.RankingSystem(job.Kind)
	user := prompts.RankingUser(job.Description, excerpts)

	callCtx, cancel := context.WithTimeout(ctx, rankTimeout)
	defer cancel()

	raw, tokens, err := s.Chat.Complete(callCtx, system, user, llm.CompleteOptions{
		JSONOnly:    true,
		Temperature: 0.1,
		MaxTokens:   4096,
	})
	if err != nil {
		telemetry.Error("ranking completion failed", map[string]any{"jobId": job.ID, "error": err.Error()})
		return Result{}, errors.Join(ErrLLMFailed, err)
	}

	candidates, err := Parse(raw)
	if err != nil {
		telemetry.Error("ranking output rejected", map[string]any{"jobId": job.ID, "error": err.Error()})
		return Result{}, errors.Join(ErrLLMFailed, err)
	}
	if dropped := retrieval.DistinctDocuments(hits) - len(candidates); dropped > 0 {
		telemetry.Error("ranking output dropped candidates", map[string]any{
			"jobId":   job.ID,
			"dropped": dropped,
		})
	}

	return s.persist(ctx, userID, job, query, Result{
		Candidates: Normalize(candidates),
		TokensUsed: tokens.TotalTokens,
	}, hits), nil
}

// persist writes the run into the query history and stamps identifiers.
// A failed history write is logged, not surfaced: the ranking was already
// produced and the quota spent.
func (s *Service) persist(ctx context.Context, userID string, job jobs.Job, query string, result Result, hits []chunks.Hit) Result {
	question := query
	if question == "" {
		question = "Rank all candidates against the job description"
	}
	result.QueryID = uuid.NewString()
	result.CreatedAt = time.Now().UTC()

	answer, err := json.Marshal(struct {
		Candidates []Candidate `json:"candidates"`
		Warning    string      `json:"warning,omitempty"`
	}{result.Candidates, result.Warning})
	if err != nil {
		telemetry.Error("ranking history encode failed", map[string]any{"jobId": job.ID, "error": err.Error()})
		return result
	}

	record := queries.Query{
		ID:         result.QueryID,
		JobID:      job.ID,
		UserID:     userID,
		Kind:       queries.KindRanking,
		Question:   question,
		Answer:     string(answer),
		Sources:    sourcesFromHits(hits),
		TokensUsed: result.TokensUsed,
		CreatedAt:  result.CreatedAt,
	}
	if err := s.Queries.Create(ctx, record); err != nil {
		telemetry.Error("ranking history write failed", map[string]any{
			"jobId":   job.ID,
			"queryId": record.ID,
			"error":   err.Error(),
		})
	}
	return result
}

// sourcesFromHits lists each cited document once, keeping its best hit's
// page and similarity.
func sourcesFromHits(hits []chunks.Hit) []queries.Source {
	seen := make(map[string]bool)
	out := make([]queries.Source, 0, len(hits))
	for _, hit := range hits {
		if seen[hit.Chunk.DocumentID] {
			continue
		}
		seen[hit.Chunk.DocumentID] = true
		out = append(out, queries.Source{
			DocumentID: hit.Chunk.DocumentID,
			FileName:   hit.FileName,
			Page:       hit.Chunk.Page,
			Similarity: hit.Similarity,
		})
	}
	return out
}
