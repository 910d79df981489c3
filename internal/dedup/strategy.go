package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bad33ndj3/mcp-prompt-dedup/internal/domain"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/embedding"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/similarity"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/tfidf"
)

// ErrUnavailable signals that a strategy could not produce scores and the
// next one in the chain should be tried.
var ErrUnavailable = errors.New("strategy unavailable")

// ErrDimensionMismatch is returned when query and corpus embeddings differ in length.
var ErrDimensionMismatch = errors.New("embedding dimensions differ")

// Strategy produces one candidate score in [0, 1] per corpus entry, in
// corpus order, or an error wrapping ErrUnavailable.
type Strategy interface {
	Name() domain.Strategy
	Scores(ctx context.Context, query string, corpus []string) ([]float64, error)
}

// EmbeddingStrategy scores by cosine similarity of provider embeddings.
// The query and the corpus are embedded concurrently; both must succeed.
type EmbeddingStrategy struct {
	embedder embedding.Embedder
	timeout  time.Duration
}

// NewEmbeddingStrategy creates an embedding strategy. A nil embedder is
// allowed and always reports ErrUnavailable.
func NewEmbeddingStrategy(e embedding.Embedder, timeout time.Duration) *EmbeddingStrategy {
	return &EmbeddingStrategy{embedder: e, timeout: timeout}
}

// Name implements Strategy.
func (s *EmbeddingStrategy) Name() domain.Strategy { return domain.StrategyEmbedding }

// Scores implements Strategy. Negative cosine values are clamped to 0.
// If ctx is cancelled the call returns at once; in-flight requests are
// left to finish against the cancelled context.
func (s *EmbeddingStrategy) Scores(ctx context.Context, query string, corpus []string) ([]float64, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, embedding.ErrNotConfigured)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type result struct {
		scores []float64
		err    error
	}
	done := make(chan result, 1)

	go func() {
		scores, err := s.embedAndScore(ctx, query, corpus)
		done <- result{scores: scores, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, r.err)
		}
		return r.scores, nil
	}
}

func (s *EmbeddingStrategy) embedAndScore(ctx context.Context, query string, corpus []string) ([]float64, error) {
	var queryVec []float32
	var corpusVecs [][]float32

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.embedder.Embed(gctx, query)
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		queryVec = v
		return nil
	})
	g.Go(func() error {
		v, err := s.embedder.EmbedBatch(gctx, corpus)
		if err != nil {
			return fmt.Errorf("embed corpus: %w", err)
		}
		corpusVecs = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(queryVec) == 0 {
		return nil, embedding.ErrEmptyVector
	}
	if len(corpusVecs) != len(corpus) {
		return nil, fmt.Errorf("%w: got %d, want %d", embedding.ErrLengthMismatch, len(corpusVecs), len(corpus))
	}

	scores := make([]float64, len(corpus))
	for i, v := range corpusVecs {
		if len(v) != len(queryVec) {
			return nil, fmt.Errorf("%w: corpus[%d] has %d, query has %d", ErrDimensionMismatch, i, len(v), len(queryVec))
		}
		scores[i] = similarity.RiskCosine(queryVec, v)
	}
	return scores, nil
}

// TFIDFStrategy scores locally with TF-IDF cosine similarity. It never fails.
type TFIDFStrategy struct{}

// Name implements Strategy.
func (TFIDFStrategy) Name() domain.Strategy { return domain.StrategyTFIDF }

// Scores implements Strategy.
func (TFIDFStrategy) Scores(_ context.Context, query string, corpus []string) ([]float64, error) {
	return tfidf.Scores(query, corpus), nil
}
