package tfidf

import "math"

// Vector is a sparse TF-IDF vector with its Euclidean norm precomputed.
// A Vector built from a document with no terms has no weights and a zero
// Magnitude.
type Vector struct {
	Weights   map[string]float64
	Magnitude float64
}

// NewVector creates a Vector from a term-weight map and computes its magnitude.
func NewVector(weights map[string]float64) Vector {
	if len(weights) == 0 {
		return Vector{}
	}
	var sumSq float64
	for _, w := range weights {
		sumSq += w * w
	}
	return Vector{Weights: weights, Magnitude: math.Sqrt(sumSq)}
}

// Len returns the number of terms with a stored weight.
func (v Vector) Len() int { return len(v.Weights) }

// Cosine computes the cosine similarity of two sparse vectors.
//
// Returns 0 if either magnitude is zero: empty documents are not similar to
// anything, including each other. The smaller vector's terms are iterated and
// terms missing from the other side contribute nothing. Weights are
// non-negative, so the result lies in [0, 1]; it is clamped to absorb
// floating-point overshoot on identical vectors.
func Cosine(a, b Vector) float64 {
	if a.Magnitude == 0 || b.Magnitude == 0 {
		return 0
	}

	small, large := a.Weights, b.Weights
	if len(small) > len(large) {
		small, large = large, small
	}

	var dot float64
	for term, w := range small {
		if other, ok := large[term]; ok {
			dot += w * other
		}
	}

	sim := dot / (a.Magnitude * b.Magnitude)
	switch {
	case sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}
