package llm

import (
	"context"
	"errors"
)

// Usage reports token consumption for one completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompleteOptions tune a single chat completion.
type CompleteOptions struct {
	// JSONOnly requests a JSON-object response from the provider.
	JSONOnly    bool
	Temperature float32
	MaxTokens   int
}

// Chat abstracts chat-completion providers.
type Chat interface {
	Complete(ctx context.Context, system, user string, opts CompleteOptions) (string, Usage, error)
}

// Embedder abstracts embedding providers. EmbedBatch must return vectors in
// the exact order of the input texts; chunk-to-embedding alignment depends
// on it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrEmptyResponse indicates the provider returned no usable content.
var ErrEmptyResponse = errors.New("llm returned empty response")

// ErrNotConfigured is returned by the placeholder clients.
var ErrNotConfigured = errors.New("llm provider not configured")

// PlaceholderChat is a stub used when no provider is configured.
type PlaceholderChat struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderChat) Complete(ctx context.Context, system, user string, opts CompleteOptions) (string, Usage, error) {
	_ = ctx
	_ = system
	_ = user
	_ = opts
	return "", Usage{}, ErrNotConfigured
}

// PlaceholderEmbedder is a stub used when no provider is configured.
type PlaceholderEmbedder struct{}

// Embed returns ErrNotConfigured.
func (PlaceholderEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	_ = ctx
	_ = text
	return nil, ErrNotConfigured
}

// EmbedBatch returns ErrNotConfigured.
func (PlaceholderEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	_ = ctx
	_ = texts
	return nil, ErrNotConfigured
}
