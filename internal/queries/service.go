package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"screener-backend/internal/chunks"
	"screener-backend/internal/documents"
	"screener-backend/internal/jobs"
	"screener-backend/internal/llm"
	"screener-backend/internal/prompts"
	"screener-backend/internal/retrieval"
	"screener-backend/internal/shared/metrics"
	"screener-backend/internal/shared/telemetry"
	"screener-backend/internal/usage"
)

const (
	maxQuestionLen = 500
	chatTimeout    = 15 * time.Second

	// AnswerNoMatches is persisted when retrieval finds nothing relevant.
	AnswerNoMatches = "I couldn't find anything relevant to that question in the uploaded resumes."
	// AnswerLLMFailed is persisted when the model call fails or times out.
	AnswerLLMFailed = "The question could not be answered right now. Please try again in a moment."
)

// TierResolver maps a principal to its subscription tier.
type TierResolver interface {
	TierFor(ctx context.Context, userID string) string
}

// Service answers ad-hoc questions over a job's resumes and serves the
// query history.
type Service struct {
	Repo      Repo
	JobsRepo  jobs.Repo
	Documents documents.Repo
	Retriever *retrieval.Retriever
	Chat      llm.Chat
	Usage     *usage.Service
	Tiers     TierResolver
}

// Ask answers one question against a job's indexed resumes and persists
// the exchange.
func (s *Service) Ask(ctx context.Context, userID, jobID, question string) (Query, error) {
	question = strings.TrimSpace(question)
	if userID == "" || jobID == "" {
		return Query{}, ErrInvalidInput
	}
	if question == "" {
		return Query{}, fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	if len(question) > maxQuestionLen {
		return Query{}, fmt.Errorf("%w: question exceeds %d characters", ErrInvalidInput, maxQuestionLen)
	}

	if _, err := s.JobsRepo.GetByID(ctx, userID, jobID); err != nil {
		return Query{}, err
	}

	ready, err := s.Documents.CountReadyByJob(ctx, jobID)
	if err != nil {
		return Query{}, err
	}
	if ready == 0 {
		return Query{}, ErrNoDocuments
	}

	tier := s.Tiers.TierFor(ctx, userID)
	if _, err := s.Usage.Consume(ctx, userID, tier); err != nil {
		return Query{}, err
	}

	started := time.Now()
	record := s.answer(ctx, userID, jobID, question)
	// The quota is spent; persist the exchange even when the request
	// context expired during the model call. A failed history write must
	// not cost the caller the answer they already paid for.
	if err := s.Repo.Create(context.WithoutCancel(ctx), record); err != nil {
		telemetry.Error("query history write failed", map[string]any{
			"jobId":   jobID,
			"queryId": record.ID,
			"error":   err.Error(),
		})
	}
	metrics.IncQueryAnswered()
	metrics.ObserveQueryDurationMs(float64(time.Since(started).Milliseconds()))
	return record, nil
}

// answer produces the stored record. Model failures degrade to a canned
// answer instead of an error: the quota is already spent and the exchange
// belongs in the history either way.
func (s *Service) answer(ctx context.Context, userID, jobID, question string) Query {
	record := Query{
		ID:        uuid.NewString(),
		JobID:     jobID,
		UserID:    userID,
		Kind:      KindChat,
		Question:  question,
		Sources:   []Source{},
		CreatedAt: time.Now().UTC(),
	}

	hits, err := s.Retriever.Retrieve(ctx, jobID, question, retrieval.ChatProfile)
	if err != nil {
		telemetry.Error("chat retrieval failed", map[string]any{"jobId": jobID, "error": err.Error()})
		metrics.IncQueryFailed()
		record.Answer = AnswerLLMFailed
		return record
	}
	if len(hits) == 0 {
		record.Answer = AnswerNoMatches
		return record
	}

	excerpts := prompts.BuildExcerpts(hits)
	callCtx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	answer, tokens, err := s.Chat.Complete(callCtx, prompts.ChatSystem(), prompts.ChatUser(question, excerpts), llm.CompleteOptions{
		Temperature: 0.2,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			telemetry.Error("chat completion timed out", map[string]any{"jobId": jobID})
		} else {
			telemetry.Error("chat completion failed", map[string]any{"jobId": jobID, "error": err.Error()})
		}
		metrics.IncQueryFailed()
		record.Answer = AnswerLLMFailed
		return record
	}

	record.Answer = answer
	record.TokensUsed = tokens.TotalTokens
	record.Sources = sourcesFromHits(hits)
	return record
}

// History returns a job's past queries, newest first.
func (s *Service) History(ctx context.Context, userID, jobID string, limit, offset int) ([]Query, error) {
	if userID == "" || jobID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.JobsRepo.GetByID(ctx, userID, jobID); err != nil {
		return nil, err
	}
	return s.Repo.ListByJob(ctx, userID, jobID, limit, offset)
}

const exportPageSize = 200

// Export returns the complete history for the CSV download. Pro tier only.
func (s *Service) Export(ctx context.Context, userID, jobID string) ([]Query, error) {
	if userID == "" || jobID == "" {
		return nil, ErrInvalidInput
	}
	if s.Tiers.TierFor(ctx, userID) != usage.TierPro {
		return nil, ErrProRequired
	}
	if _, err := s.JobsRepo.GetByID(ctx, userID, jobID); err != nil {
		return nil, err
	}

	var out []Query
	for offset := 0; ; offset += exportPageSize {
		page, err := s.Repo.ListByJob(ctx, userID, jobID, exportPageSize, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < exportPageSize {
			return out, nil
		}
	}
}

const snippetRunes = 200

// sourcesFromHits lists each cited document once, keeping its best hit's
// page, snippet, and similarity. Hits arrive sorted by similarity, so the
// first hit per document is its best.
func sourcesFromHits(hits []chunks.Hit) []Source {
	seen := make(map[string]bool)
	out := make([]Source, 0, len(hits))
	for _, hit := range hits {
		if seen[hit.Chunk.DocumentID] {
			continue
		}
		seen[hit.Chunk.DocumentID] = true
		out = append(out, Source{
			DocumentID: hit.Chunk.DocumentID,
			FileName:   hit.FileName,
			Page:       hit.Chunk.Page,
			Snippet:    snippet(hit.Chunk.Content),
			Similarity: hit.Similarity,
		})
	}
	return out
}

func snippet(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= snippetRunes {
		return string(runes)
	}
	return string(runes[:snippetRunes])
}
