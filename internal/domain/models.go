// Package domain contains core data types shared across the prompt
// duplication server. These are plain data structures: the scorer produces
// them, the store persists them, and the handlers render them.
package domain

import "time"

// StoreVersion is incremented when the prompt store file format changes.
const StoreVersion = 1

// DefaultCorpusWindow is how many recent prompts a new submission is
// compared against when the caller does not say otherwise.
const DefaultCorpusWindow = 20

// Strategy names which scorer produced an Outcome's candidate scores.
type Strategy string

const (
	// StrategyNone means nothing was scored (empty corpus).
	StrategyNone Strategy = "none"

	// StrategyEmbedding means scores came from embedding cosine similarity.
	StrategyEmbedding Strategy = "embedding"

	// StrategyTFIDF means scores came from the local TF-IDF vectorizer.
	StrategyTFIDF Strategy = "tfidf"
)

// ScoreEntry pairs one corpus text with its duplication risk in [0, 1].
type ScoreEntry struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Outcome is the result of one scoring call.
type Outcome struct {
	// MaxScore is the highest entry score, 0 for an empty corpus.
	MaxScore float64 `json:"max_score"`

	// Warning is MaxScore >= threshold. Always false for an empty corpus.
	Warning bool `json:"warning"`

	// Results holds one entry per corpus text. Corpus order unless the
	// scorer was configured to sort by descending score.
	Results []ScoreEntry `json:"results"`

	// Strategy is the scorer that produced the candidate scores.
	Strategy Strategy `json:"strategy"`

	// Degraded is true when embeddings were attempted and failed.
	Degraded bool `json:"degraded,omitempty"`

	// Refined is true when edit similarity was folded into the scores.
	Refined bool `json:"refined,omitempty"`
}

// Closest returns the highest-scoring entry, or false for an empty Outcome.
// Ties go to the earliest entry.
func (o Outcome) Closest() (ScoreEntry, bool) {
	if len(o.Results) == 0 {
		return ScoreEntry{}, false
	}
	best := o.Results[0]
	for _, r := range o.Results[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best, true
}

// Prompt is a previously accepted submission.
type Prompt struct {
	// ID is a UUID assigned on insert.
	ID string `json:"id"`

	// Content is the prompt text. Unique across the store.
	Content string `json:"content"`

	Team  string `json:"team,omitempty"`
	Owner string `json:"owner,omitempty"`

	// SimilarityScore is the MaxScore the prompt had when it was accepted.
	SimilarityScore float64 `json:"similarity_score"`

	CreatedAt time.Time `json:"created_at"`
}

// Clock abstracts time access for reproducible tests.
type Clock interface {
	Now() time.Time
}

// RealClock uses the actual system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
