// Package similarity provides the vocabulary-independent scorers: cosine
// similarity over dense embedding vectors and normalized edit similarity
// over raw strings.
package similarity

import (
	"math"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Cosine calculates cosine similarity between two dense vectors.
// Returns a value between -1 (opposite) and 1 (identical), or 0 when the
// lengths differ, either vector is empty, or either norm is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Clamp limits a raw similarity to the [0, 1] risk range.
// Negative cosine values (opposite-direction embeddings) become 0.
func Clamp(score float64) float64 {
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}

// RiskCosine is Cosine clamped to [0, 1].
func RiskCosine(a, b []float32) float64 {
	return Clamp(Cosine(a, b))
}

// EditSimilarity returns 1 - levenshtein(a, b) / max(len(a), len(b)).
// Lengths and edits are counted in runes. Two empty strings are identical
// (1); exactly one empty string scores 0.
func EditSimilarity(a, b string) float64 {
	lenA := utf8.RuneCountInString(a)
	lenB := utf8.RuneCountInString(b)
	if lenA == 0 && lenB == 0 {
		return 1
	}
	if lenA == 0 || lenB == 0 {
		return 0
	}
	if a == b {
		return 1
	}

	dist := levenshtein.ComputeDistance(a, b)
	maxLen := max(lenA, lenB)
	return Clamp(1 - float64(dist)/float64(maxLen))
}
