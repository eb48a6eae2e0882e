package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"screener-backend/internal/llm"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	c, err := NewClient("test-key", "test-model")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, srv
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	if _, err := NewClient("", "model"); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewClient("key", "  "); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestCompleteSuccess(t *testing.T) {
	var gotBody chatRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  hello  "}}],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`)
	}))

	text, usage, err := c.Complete(context.Background(), "sys", "user msg", llm.CompleteOptions{JSONOnly: true, MaxTokens: 50})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "hello" {
		t.Fatalf("expected trimmed content, got %q", text)
	}
	if usage.TotalTokens != 15 || usage.PromptTokens != 12 {
		t.Fatalf("unexpected usage %+v", usage)
	}
	if gotBody.ResponseFormat == nil || gotBody.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", gotBody.ResponseFormat)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages %+v", gotBody.Messages)
	}
	if gotBody.MaxTokens != 50 {
		t.Fatalf("expected max_tokens 50, got %d", gotBody.MaxTokens)
	}
}

func TestCompleteOmitsEmptySystemMessage(t *testing.T) {
	var gotBody chatRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))

	if _, _, err := c.Complete(context.Background(), "   ", "question", llm.CompleteOptions{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Role != "user" {
		t.Fatalf("expected single user message, got %+v", gotBody.Messages)
	}
}

func TestCompleteAPIError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))

	_, _, err := c.Complete(context.Background(), "", "q", llm.CompleteOptions{})
	if err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))

	_, _, err := c.Complete(context.Background(), "", "q", llm.CompleteOptions{})
	if err == nil || !strings.Contains(err.Error(), "missing choices") {
		t.Fatalf("expected missing choices error, got %v", err)
	}
}

func TestCompleteContextTimeout(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := c.Complete(ctx, "", "q", llm.CompleteOptions{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func newTestEmbedClient(t *testing.T, dim int, handler http.Handler) *EmbedClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	c, err := NewEmbedClient("test-key", "embed-model", dim)
	if err != nil {
		t.Fatalf("NewEmbedClient: %v", err)
	}
	return c
}

// embedHandler answers each input text with a vector whose first component
// encodes the text's numeric suffix, so result alignment is checkable.
func embedHandler(t *testing.T, dim int, delayFirst time.Duration) http.Handler {
	var calls atomic.Int32
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 && delayFirst > 0 {
			time.Sleep(delayFirst)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode embed request: %v", err)
		}
		type datum struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		data := make([]datum, len(req.Input))
		for i, text := range req.Input {
			var n float32
			fmt.Sscanf(text, "text-%f", &n)
			vec := make([]float32, dim)
			vec[0] = n
			data[i] = datum{Index: i, Embedding: vec}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	})
}

func TestEmbedBatchPreservesOrderAcrossBatches(t *testing.T) {
	const dim = 4
	// 25 texts -> 3 batches; the first request is delayed so it finishes
	// after the others.
	c := newTestEmbedClient(t, dim, embedHandler(t, dim, 100*time.Millisecond))

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%d", i)
	}

	vectors, err := c.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != dim {
			t.Fatalf("vector %d has dimension %d", i, len(vec))
		}
		if vec[0] != float32(i) {
			t.Fatalf("vector %d out of order: marker %v", i, vec[0])
		}
	}
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	c := newTestEmbedClient(t, 4, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty input")
	}))
	vectors, err := c.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vectors) != 0 {
		t.Fatalf("expected no vectors, got %d", len(vectors))
	}
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	c := newTestEmbedClient(t, 8, embedHandler(t, 4, 0))
	_, err := c.Embed(context.Background(), "text-1")
	if err == nil || !strings.Contains(err.Error(), "dimension") {
		t.Fatalf("expected dimension error, got %v", err)
	}
}

func TestEmbedBatchPropagatesAPIError(t *testing.T) {
	c := newTestEmbedClient(t, 4, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
	}))
	_, err := c.EmbedBatch(context.Background(), []string{"text-1", "text-2"})
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}
