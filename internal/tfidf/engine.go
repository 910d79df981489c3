// Package tfidf builds TF-IDF vectors for one query against a small corpus.
//
// Everything is rebuilt per call: the vocabulary and IDF table cover exactly
// the query plus the corpus handed in, so adding prompts to the corpus can
// never leave stale weights behind.
package tfidf

import (
	"math"

	"github.com/bad33ndj3/mcp-prompt-dedup/internal/text"
)

// Model holds the document statistics shared by every vector of one call.
type Model struct {
	// DocFreq maps each term to the number of documents containing it at
	// least once. Every vocabulary term has DocFreq >= 1.
	DocFreq map[string]int

	// IDF maps each term to its inverse document frequency.
	IDF map[string]float64

	// NumDocs is the corpus size plus one for the query.
	NumDocs int
}

// Result is the output of Vectorize: one vector per input document.
type Result struct {
	Query  Vector
	Corpus []Vector // same order as the input corpus
	Model  Model
}

// BuildModel computes document frequencies and IDF over tokenized documents.
//
// IDF is ln((N+1) / df) with N = len(docs). The extra one keeps a term that
// occurs in every document slightly above zero, so a non-empty document never
// collapses to a zero vector and identical documents still score 1.
func BuildModel(docs [][]string) Model {
	docFreq := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			docFreq[t]++
		}
	}

	n := len(docs)
	idf := make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		idf[term] = calcIDF(n, df)
	}

	return Model{DocFreq: docFreq, IDF: idf, NumDocs: n}
}

// calcIDF is monotonically non-increasing in df. df is always >= 1 for
// vocabulary terms; a zero df is treated as 1.
func calcIDF(numDocs, docFreq int) float64 {
	if docFreq < 1 {
		docFreq = 1
	}
	return math.Log(float64(numDocs+1) / float64(docFreq))
}

// Vector builds the weighted vector for one tokenized document.
// TF is occurrences divided by document length; weight is TF × IDF.
// Terms outside the model's vocabulary are ignored.
func (m Model) Vector(tokens []string) Vector {
	if len(tokens) == 0 {
		return Vector{}
	}

	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}

	length := float64(len(tokens))
	weights := make(map[string]float64, len(counts))
	for term, c := range counts {
		idf, ok := m.IDF[term]
		if !ok {
			continue
		}
		weights[term] = (float64(c) / length) * idf
	}
	return NewVector(weights)
}

// Vectorize tokenizes the query and every corpus entry, builds a shared
// model over all of them, and returns one vector per document.
// It has no state: the same inputs always produce the same vectors.
func Vectorize(query string, corpus []string) Result {
	docs := make([][]string, 0, len(corpus)+1)
	docs = append(docs, text.Tokenize(query))
	for _, c := range corpus {
		docs = append(docs, text.Tokenize(c))
	}

	model := BuildModel(docs)

	vectors := make([]Vector, len(corpus))
	for i := range corpus {
		vectors[i] = model.Vector(docs[i+1])
	}

	return Result{
		Query:  model.Vector(docs[0]),
		Corpus: vectors,
		Model:  model,
	}
}

// Scores returns the cosine similarity of the query against each corpus
// entry, in corpus order.
func Scores(query string, corpus []string) []float64 {
	r := Vectorize(query, corpus)
	out := make([]float64, len(r.Corpus))
	for i, v := range r.Corpus {
		out[i] = Cosine(r.Query, v)
	}
	return out
}
