// Package prompts implements the submission flow around the scorer.
// It pulls a recency window from the store, asks the scorer for a
// duplication risk, and applies the insert-or-reject policy.
// Dependency injection via interfaces makes it fully testable.
package prompts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bad33ndj3/mcp-prompt-dedup/internal/domain"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/store"
)

// ErrEmptyContent is returned for blank submissions.
var ErrEmptyContent = errors.New("content is required")

// Scorer computes the duplication risk of a query against a corpus.
// *dedup.Scorer is the production implementation.
type Scorer interface {
	Score(ctx context.Context, query string, corpus []string) domain.Outcome
}

// Service orchestrates checking and submitting prompts.
type Service struct {
	store  store.Store
	scorer Scorer
	window int
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithWindow sets how many recent prompts a submission is compared against.
func WithWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.window = n
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service with all its dependencies injected.
func New(st store.Store, sc Scorer, opts ...Option) *Service {
	s := &Service{
		store:  st,
		scorer: sc,
		window: domain.DefaultCorpusWindow,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the corpus window size.
func (s *Service) Window() int { return s.window }

// CheckResult is the outcome of scoring a candidate against the store.
type CheckResult struct {
	domain.Outcome

	// CorpusSize is how many stored prompts were compared.
	CorpusSize int

	// Closest is the best match, nil for an empty store.
	Closest *domain.ScoreEntry

	// Diff shows how the candidate differs from Closest. Empty if Closest is nil.
	Diff string
}

// Check scores content against the most recent stored prompts without
// saving anything.
func (s *Service) Check(ctx context.Context, content string) (*CheckResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	corpus := s.store.Recent(s.window)
	outcome := s.scorer.Score(ctx, content, corpus)

	result := &CheckResult{Outcome: outcome, CorpusSize: len(corpus)}
	if closest, ok := outcome.Closest(); ok {
		result.Closest = &closest
		result.Diff = Diff(closest.Text, content)
	}

	s.logger.Debug("prompt checked",
		"corpus_size", len(corpus),
		"max_score", outcome.MaxScore,
		"warning", outcome.Warning,
		"strategy", outcome.Strategy,
	)
	return result, nil
}

// SubmitRequest is a new prompt submission.
type SubmitRequest struct {
	Content string
	Team    string
	Owner   string
}

// SubmitResult reports whether a submission was saved.
type SubmitResult struct {
	Saved    bool
	Warning  bool
	MaxScore float64
	Strategy domain.Strategy

	// Prompt is the stored prompt when Saved is true.
	Prompt *domain.Prompt
}

// Submit scores the submission and stores it unless it looks like a
// duplicate. A warning is a normal result, not an error. Exact duplicates
// that fall outside the window are still rejected by the store with
// store.ErrDuplicate.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyContent
	}

	corpus := s.store.Recent(s.window)
	outcome := s.scorer.Score(ctx, req.Content, corpus)

	result := &SubmitResult{
		Warning:  outcome.Warning,
		MaxScore: outcome.MaxScore,
		Strategy: outcome.Strategy,
	}
	if outcome.Warning {
		s.logger.Info("prompt rejected as likely duplicate",
			"max_score", outcome.MaxScore,
			"strategy", outcome.Strategy,
		)
		return result, nil
	}

	saved, err := s.store.Add(domain.Prompt{
		Content:         req.Content,
		Team:            req.Team,
		Owner:           req.Owner,
		SimilarityScore: outcome.MaxScore,
	})
	if err != nil {
		return nil, fmt.Errorf("save prompt: %w", err)
	}

	s.logger.Info("prompt saved",
		"id", saved.ID,
		"max_score", outcome.MaxScore,
		"strategy", outcome.Strategy,
	)
	result.Saved = true
	result.Prompt = &saved
	return result, nil
}

// Score scores query against an explicit corpus, bypassing the store.
func (s *Service) Score(ctx context.Context, query string, corpus []string) domain.Outcome {
	return s.scorer.Score(ctx, query, corpus)
}

// List returns all stored prompts, newest first.
func (s *Service) List() []domain.Prompt {
	return s.store.List()
}
