package dedup

import (
	"fmt"
	"time"
)

// Config controls one scoring call.
type Config struct {
	// EmbeddingEnabled allows the embedding strategy when an embedder is wired.
	EmbeddingEnabled bool

	// Threshold is the inclusive warning cut-off in [0, 1].
	Threshold float64

	// RefineWithEditDistance takes max(candidate, edit similarity) per entry.
	RefineWithEditDistance bool

	// SortDescending orders results by score instead of corpus order.
	SortDescending bool

	// EmbeddingTimeout bounds the embedding round. Zero means no extra bound
	// beyond the caller's context.
	EmbeddingTimeout time.Duration
}

// DefaultConfig returns the settings used by the prompt submission flow.
func DefaultConfig() Config {
	return Config{
		EmbeddingEnabled:       true,
		Threshold:              0.8,
		RefineWithEditDistance: true,
		SortDescending:         false,
		EmbeddingTimeout:       10 * time.Second,
	}
}

// Validate rejects out-of-range settings.
func (c Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be within [0, 1], got %v", c.Threshold)
	}
	if c.EmbeddingTimeout < 0 {
		return fmt.Errorf("embedding timeout must not be negative, got %v", c.EmbeddingTimeout)
	}
	return nil
}
