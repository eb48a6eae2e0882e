package queries

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"screener-backend/internal/chunks"
	"screener-backend/internal/documents"
	"screener-backend/internal/jobs"
	"screener-backend/internal/llm"
	"screener-backend/internal/retrieval"
	"screener-backend/internal/usage"
)

type fakeChat struct {
	response string
	err      error
	delay    time.Duration
}

func (f *fakeChat) Complete(ctx context.Context, system, user string, opts llm.CompleteOptions) (string, llm.Usage, error) {
	_ = system
	_ = user
	_ = opts
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return "", llm.Usage{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return "", llm.Usage{}, f.err
	}
	return f.response, llm.Usage{TotalTokens: 42}, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type tierMap map[string]string

func (m tierMap) TierFor(ctx context.Context, userID string) string {
	if tier, ok := m[userID]; ok {
		return tier
	}
	return usage.TierFree
}

type askFixture struct {
	svc    *Service
	docs   *documents.MemoryRepo
	chunks *chunks.MemoryRepo
	tiers  tierMap
}

func newAskFixture(t *testing.T, chat llm.Chat) *askFixture {
	t.Helper()
	ctx := context.Background()

	jobsRepo := jobs.NewMemoryRepo()
	if err := jobsRepo.Create(ctx, jobs.Job{
		ID: "job-1", UserID: "u1", Title: "Backend", Description: "Go",
		Kind: jobs.KindJob, CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	docsRepo := documents.NewMemoryRepo()
	chunkRepo := chunks.NewMemoryRepo()
	tiers := tierMap{}

	return &askFixture{
		svc: &Service{
			Repo:      NewMemoryRepo(),
			JobsRepo:  jobsRepo,
			Documents: docsRepo,
			Retriever: &retrieval.Retriever{Embedder: fakeEmbedder{}, Chunks: chunkRepo},
			Chat:      chat,
			Usage:     usage.NewService(usage.NewMemoryRepo()),
			Tiers:     tiers,
		},
		docs:   docsRepo,
		chunks: chunkRepo,
		tiers:  tiers,
	}
}

func (f *askFixture) seedReadyDocument(t *testing.T, docID, fileName string, withChunks bool) {
	t.Helper()
	ctx := context.Background()
	if err := f.docs.Create(ctx, documents.Document{
		ID: docID, JobID: "job-1", UserID: "u1", FileName: fileName,
		Status: documents.StatusProcessing, CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	if err := f.docs.MarkReady(ctx, docID, 1, "text"); err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	if withChunks {
		f.chunks.SetFileName(docID, fileName)
		if err := f.chunks.ReplaceForDocument(ctx, docID, []chunks.Chunk{
			{ID: docID + "-0", DocumentID: docID, JobID: "job-1", Content: "go experience", Page: 1, Embedding: []float32{1, 0}},
		}); err != nil {
			t.Fatalf("seed chunks: %v", err)
		}
	}
}

func TestAskAnswersAndPersists(t *testing.T) {
	f := newAskFixture(t, &fakeChat{response: "Alice has Go experience [Doc 1]."})
	f.seedReadyDocument(t, "doc-1", "alice.pdf", true)

	record, err := f.svc.Ask(context.Background(), "u1", "job-1", "Who knows Go?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if record.Answer != "Alice has Go experience [Doc 1]." {
		t.Fatalf("unexpected answer %q", record.Answer)
	}
	if record.TokensUsed != 42 {
		t.Fatalf("tokens = %d", record.TokensUsed)
	}
	if len(record.Sources) != 1 || record.Sources[0].FileName != "alice.pdf" || record.Sources[0].Page != 1 {
		t.Fatalf("unexpected sources %+v", record.Sources)
	}
	if record.Sources[0].DocumentID != "doc-1" || record.Sources[0].Snippet == "" || record.Sources[0].Similarity <= 0 {
		t.Fatalf("citation missing document id, snippet, or similarity: %+v", record.Sources[0])
	}

	history, err := f.svc.History(context.Background(), "u1", "job-1", 10, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Kind != KindChat {
		t.Fatalf("exchange not persisted: %+v", history)
	}
}

func TestAskValidation(t *testing.T) {
	f := newAskFixture(t, &fakeChat{response: "x"})
	f.seedReadyDocument(t, "doc-1", "alice.pdf", true)
	ctx := context.Background()

	if _, err := f.svc.Ask(ctx, "u1", "job-1", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty question: expected ErrInvalidInput, got %v", err)
	}
	long := strings.Repeat("q", maxQuestionLen+1)
	if _, err := f.svc.Ask(ctx, "u1", "job-1", long); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("long question: expected ErrInvalidInput, got %v", err)
	}
}

func TestAskRequiresReadyDocuments(t *testing.T) {
	f := newAskFixture(t, &fakeChat{response: "x"})

	_, err := f.svc.Ask(context.Background(), "u1", "job-1", "Who knows Go?")
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}

	u, _ := f.svc.Usage.Get(context.Background(), "u1", usage.TierFree)
	if u.Used != 0 {
		t.Fatalf("rejected ask must not consume quota, used = %d", u.Used)
	}
}

func TestAskNoHitsReturnsCannedAnswer(t *testing.T) {
	f := newAskFixture(t, &fakeChat{response: "should not be called"})
	f.seedReadyDocument(t, "doc-1", "alice.pdf", false)

	record, err := f.svc.Ask(context.Background(), "u1", "job-1", "Who knows Go?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if record.Answer != AnswerNoMatches {
		t.Fatalf("expected canned no-match answer, got %q", record.Answer)
	}
	if len(record.Sources) != 0 {
		t.Fatalf("no-match answer must have no sources: %+v", record.Sources)
	}
}

func TestAskTimeoutDegradesToCannedAnswer(t *testing.T) {
	// Completion stalls past the question deadline.
	f := newAskFixture(t, &fakeChat{response: "late", delay: 30 * time.Second})
	f.seedReadyDocument(t, "doc-1", "alice.pdf", true)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	record, err := f.svc.Ask(ctx, "u1", "job-1", "Who knows Go?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if record.Answer != AnswerLLMFailed {
		t.Fatalf("expected canned failure answer, got %q", record.Answer)
	}

	history, _ := f.svc.History(context.Background(), "u1", "job-1", 10, 0)
	if len(history) != 1 {
		t.Fatalf("failed exchange must still be persisted, got %d", len(history))
	}
}

func TestAskConsumesQuota(t *testing.T) {
	f := newAskFixture(t, &fakeChat{response: "answer"})
	f.seedReadyDocument(t, "doc-1", "alice.pdf", true)
	ctx := context.Background()

	for i := 0; i < usage.FreeMonthlyLimit; i++ {
		if _, err := f.svc.Usage.Consume(ctx, "u1", usage.TierFree); err != nil {
			t.Fatalf("spend quota: %v", err)
		}
	}

	_, err := f.svc.Ask(ctx, "u1", "job-1", "Who knows Go?")
	if !errors.Is(err, usage.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

type failingCreateRepo struct {
	*MemoryRepo
}

func (r *failingCreateRepo) Create(ctx context.Context, q Query) error {
	return errors.New("db write failed")
}

func TestAskReturnsAnswerWhenHistoryWriteFails(t *testing.T) {
	f := newAskFixture(t, &fakeChat{response: "Alice has Go experience."})
	f.seedReadyDocument(t, "doc-1", "alice.pdf", true)
	f.svc.Repo = &failingCreateRepo{MemoryRepo: NewMemoryRepo()}

	record, err := f.svc.Ask(context.Background(), "u1", "job-1", "Who knows Go?")
	if err != nil {
		t.Fatalf("history write failure must not fail the answer: %v", err)
	}
	if record.Answer != "Alice has Go experience." {
		t.Fatalf("unexpected answer %q", record.Answer)
	}
}

func TestExportReturnsFullHistoryAcrossPages(t *testing.T) {
	f := newAskFixture(t, &fakeChat{response: "x"})
	f.tiers["u1"] = usage.TierPro
	ctx := context.Background()

	total := exportPageSize + 50
	base := time.Now().UTC()
	for i := 0; i < total; i++ {
		if err := f.svc.Repo.Create(ctx, Query{
			ID: strconv.Itoa(i), JobID: "job-1", UserID: "u1", Kind: KindChat,
			Question: "q", Answer: "a", CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("seed query %d: %v", i, err)
		}
	}

	items, err := f.svc.Export(ctx, "u1", "job-1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(items) != total {
		t.Fatalf("expected %d rows, got %d", total, len(items))
	}
}

func TestExportRequiresProTier(t *testing.T) {
	f := newAskFixture(t, &fakeChat{response: "answer"})
	ctx := context.Background()

	if _, err := f.svc.Export(ctx, "u1", "job-1"); !errors.Is(err, ErrProRequired) {
		t.Fatalf("expected ErrProRequired, got %v", err)
	}

	f.tiers["u1"] = usage.TierPro
	items, err := f.svc.Export(ctx, "u1", "job-1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty history, got %d", len(items))
	}
}
