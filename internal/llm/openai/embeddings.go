package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"screener-backend/internal/llm"
)

const (
	// embedBatchSize bounds texts per embeddings request.
	embedBatchSize = 10
	// embedConcurrency bounds in-flight embeddings requests per call.
	embedConcurrency = 4
)

// EmbedClient implements llm.Embedder using OpenAI Embeddings.
type EmbedClient struct {
	apiKey     string
	model      string
	dim        int
	baseURL    string
	httpClient *http.Client
}

// NewEmbedClient constructs a new OpenAI embeddings client. dim is the
// expected vector dimension; responses of any other length are rejected
// rather than written to storage.
func NewEmbedClient(apiKey, model string, dim int) (*EmbedClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("EMBED_MODEL is required for OpenAI")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &EmbedClient{
		apiKey:  apiKey,
		model:   model,
		dim:     dim,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Embed returns the vector for a single text.
func (c *EmbedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embedOnce(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("openai embeddings: expected 1 vector, got %d", len(vectors))
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in batches of embedBatchSize, issuing batch
// requests concurrently. The returned slice is aligned with texts by index
// regardless of request completion order.
func (c *EmbedClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for start := 0; start < len(texts); start += embedBatchSize {
		start := start
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			vectors, err := c.embedOnce(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("embed batch at %d: %w", start, err)
			}
			if len(vectors) != end-start {
				return fmt.Errorf("embed batch at %d: expected %d vectors, got %d", start, end-start, len(vectors))
			}
			mu.Lock()
			copy(out[start:end], vectors)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *EmbedClient) embedOnce(ctx context.Context, input []string) ([][]float32, error) {
	payload, err := json.Marshal(embedRequest{Model: c.model, Input: input})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openai embeddings parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openai embeddings error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Data) != len(input) {
		return nil, fmt.Errorf("openai embeddings: expected %d vectors, got %d", len(input), len(parsed.Data))
	}

	// Alignment with input texts is load-bearing downstream, so order by
	// the index field instead of trusting response order.
	sort.Slice(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })

	vectors := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		if len(d.Embedding) != c.dim {
			return nil, fmt.Errorf("openai embeddings: vector %d has dimension %d, want %d", i, len(d.Embedding), c.dim)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

var _ llm.Embedder = (*EmbedClient)(nil)
