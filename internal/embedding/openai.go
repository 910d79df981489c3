package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an embedder for the OpenAI API.
// A missing API key yields ErrNotConfigured.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("%w: openai api key is empty", ErrNotConfigured)
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}

	model := openai.SmallEmbedding3
	if cfg.OpenAIModel != "" {
		model = openai.EmbeddingModel(cfg.OpenAIModel)
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Embed generates a single embedding vector.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in one request. Results are placed by the
// index the API reports, not by response order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed: %w: got %d, want %d", ErrLengthMismatch, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("openai embed: unexpected index %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	if err := checkBatch(texts, vectors); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	return vectors, nil
}

// Available reports whether the client has credentials. It does not make a
// network call, since every OpenAI request is billed.
func (e *OpenAIEmbedder) Available(ctx context.Context) bool {
	return e.client != nil
}
