package crossencoder

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// LocalRerankerClient implements the Client interface using cosine similarity
// of term-frequency vectors. It requires no model downloads or external
// calls, which makes it a reasonable fallback and a fast baseline for basic
// text matching.
type LocalRerankerClient struct {
	config Config
}

// NewLocalRerankerClient creates a new local similarity reranker client
func NewLocalRerankerClient(config Config) *LocalRerankerClient {
	return &LocalRerankerClient{config: config}
}

// Rank ranks the given passages based on their relevance to the query
func (c *LocalRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	queryTF := termFrequencies(query)

	ranked := make([]RankedPassage, len(passages))
	for i, passage := range passages {
		ranked[i] = RankedPassage{
			Index:   i,
			Passage: passage,
			Score:   tfCosineSimilarity(queryTF, termFrequencies(passage)),
		}
	}

	sortByScore(ranked)
	return ranked, nil
}

// Close cleans up any resources used by the client
func (c *LocalRerankerClient) Close() error {
	return nil
}

// termFrequencies tokenizes text into lowercase terms and counts them.
func termFrequencies(text string) map[string]float64 {
	tf := make(map[string]float64)
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, term := range terms {
		tf[term]++
	}
	return tf
}

// tfCosineSimilarity computes cosine similarity between two term-frequency
// vectors.
func tfCosineSimilarity(a, b map[string]float64) float64 {
	var dot, normA, normB float64

	for term, countA := range a {
		normA += countA * countA
		if countB, ok := b[term]; ok {
			dot += countA * countB
		}
	}
	for _, countB := range b {
		normB += countB * countB
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
