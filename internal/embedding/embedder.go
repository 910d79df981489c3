// Package embedding is the boundary to external embedding providers.
// Providers are black boxes: any failure here is reported as an error and
// the caller decides how to degrade.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Provider names accepted by New.
const (
	ProviderNone   = "none"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

var (
	// ErrNotConfigured is returned when no provider is selected or its
	// credentials are missing.
	ErrNotConfigured = errors.New("embedding provider not configured")

	// ErrLengthMismatch is returned when a provider answers with a different
	// number of vectors than inputs.
	ErrLengthMismatch = errors.New("embedding count does not match input count")

	// ErrEmptyVector is returned when a provider answers with a zero-length vector.
	ErrEmptyVector = errors.New("provider returned an empty embedding")
)

// Config holds settings for the embedding client.
type Config struct {
	Provider string // "none", "ollama" or "openai"

	OllamaHost  string // Ollama server URL (default: "http://localhost:11434")
	OllamaModel string // Ollama model (default: "nomic-embed-text")

	OpenAIKey     string // API key; empty means not configured
	OpenAIModel   string // default: "text-embedding-3-small"
	OpenAIBaseURL string // optional override, e.g. for a proxy
}

// DefaultConfig returns defaults with embeddings switched off.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderNone,
		OllamaHost:  "http://localhost:11434",
		OllamaModel: "nomic-embed-text",
		OpenAIModel: "text-embedding-3-small",
	}
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates one embedding per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Available returns true if the embedding service can be used.
	Available(ctx context.Context) bool
}

// New builds the embedder selected by cfg.Provider.
// It returns ErrNotConfigured for ProviderNone or missing credentials.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "", ProviderNone:
		return nil, ErrNotConfigured
	case ProviderOllama:
		return NewOllamaEmbedder(cfg)
	case ProviderOpenAI:
		return NewOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// checkBatch validates a provider response against its request.
func checkBatch(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w at index %d", ErrEmptyVector, i)
		}
	}
	return nil
}

// Stats counts embedding attempts so degraded mode is visible to operators.
// It never influences scoring.
type Stats struct {
	mu          sync.RWMutex
	attempts    int
	failures    int
	lastError   string
	lastFailure time.Time
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Attempts    int       `json:"attempts"`
	Failures    int       `json:"failures"`
	LastError   string    `json:"last_error,omitempty"`
	LastFailure time.Time `json:"last_failure,omitempty"`
}

// NewStats creates an empty stats tracker.
func NewStats() *Stats {
	return &Stats{}
}

// RecordSuccess counts a successful embedding round.
func (s *Stats) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
}

// RecordFailure counts a failed embedding round.
func (s *Stats) RecordFailure(err error, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	s.failures++
	if err != nil {
		s.lastError = err.Error()
	}
	s.lastFailure = at
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Attempts:    s.attempts,
		Failures:    s.failures,
		LastError:   s.lastError,
		LastFailure: s.lastFailure,
	}
}
