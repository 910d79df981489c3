// Package dedup scores a candidate prompt against a corpus of accepted
// prompts and decides whether it looks like a duplicate.
//
// Scoring walks an ordered chain of strategies and keeps the first one that
// produces scores. Embeddings come first when configured; TF-IDF is always
// last and cannot fail, so Score always returns a result. Provider failures
// are logged as degraded mode and never surface as errors.
package dedup

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/bad33ndj3/mcp-prompt-dedup/internal/domain"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/embedding"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/similarity"
)

// Scorer is the similarity orchestrator. It holds no per-call state and is
// safe for concurrent use.
type Scorer struct {
	cfg      Config
	embedder embedding.Embedder
	stats    *embedding.Stats
	logger   *slog.Logger
	clock    domain.Clock
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithEmbedder wires an embedding provider. stats may be nil.
func WithEmbedder(e embedding.Embedder, stats *embedding.Stats) Option {
	return func(s *Scorer) {
		s.embedder = e
		s.stats = stats
	}
}

// WithLogger sets the logger used for degraded-mode events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used to timestamp failures.
func WithClock(c domain.Clock) Option {
	return func(s *Scorer) {
		if c != nil {
			s.clock = c
		}
	}
}

// New creates a Scorer with the given default configuration.
func New(cfg Config, opts ...Option) *Scorer {
	s := &Scorer{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  domain.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the scorer's default configuration.
func (s *Scorer) Config() Config { return s.cfg }

// Score scores query against corpus with the scorer's default configuration.
func (s *Scorer) Score(ctx context.Context, query string, corpus []string) domain.Outcome {
	return s.ScoreWithConfig(ctx, query, corpus, s.cfg)
}

// ScoreWithConfig scores query against corpus using cfg for this call only.
// The corpus is used as given; windowing it is the caller's job.
func (s *Scorer) ScoreWithConfig(ctx context.Context, query string, corpus []string, cfg Config) domain.Outcome {
	if len(corpus) == 0 {
		return domain.Outcome{
			Results:  []domain.ScoreEntry{},
			Strategy: domain.StrategyNone,
		}
	}

	scores, used, degraded := s.runChain(ctx, query, corpus, s.strategies(cfg))

	if cfg.RefineWithEditDistance {
		for i, text := range corpus {
			scores[i] = max(scores[i], similarity.EditSimilarity(query, text))
		}
	}

	results := make([]domain.ScoreEntry, len(corpus))
	maxScore := 0.0
	for i, text := range corpus {
		score := similarity.Clamp(scores[i])
		results[i] = domain.ScoreEntry{Text: text, Score: score}
		maxScore = max(maxScore, score)
	}

	if cfg.SortDescending {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}

	return domain.Outcome{
		MaxScore: maxScore,
		Warning:  maxScore >= cfg.Threshold,
		Results:  results,
		Strategy: used,
		Degraded: degraded,
		Refined:  cfg.RefineWithEditDistance,
	}
}

// strategies builds the ordered chain for one call.
func (s *Scorer) strategies(cfg Config) []Strategy {
	chain := make([]Strategy, 0, 2)
	if cfg.EmbeddingEnabled && s.embedder != nil {
		chain = append(chain, NewEmbeddingStrategy(s.embedder, cfg.EmbeddingTimeout))
	}
	return append(chain, TFIDFStrategy{})
}

// runChain returns the scores of the first strategy that succeeds.
// degraded reports whether an embedding attempt failed along the way.
func (s *Scorer) runChain(ctx context.Context, query string, corpus []string, chain []Strategy) ([]float64, domain.Strategy, bool) {
	degraded := false
	for _, st := range chain {
		scores, err := st.Scores(ctx, query, corpus)
		if err == nil && len(scores) == len(corpus) {
			if st.Name() == domain.StrategyEmbedding && s.stats != nil {
				s.stats.RecordSuccess()
			}
			return scores, st.Name(), degraded
		}

		if st.Name() == domain.StrategyEmbedding {
			degraded = true
			if s.stats != nil {
				s.stats.RecordFailure(err, s.clock.Now())
			}
		}
		s.logger.Warn("similarity strategy failed, falling back",
			"strategy", st.Name(),
			"error", err,
			"corpus_size", len(corpus),
		)
	}

	// Unreachable while TF-IDF terminates the chain.
	return make([]float64, len(corpus)), domain.StrategyNone, degraded
}
