package crossencoder

import (
	"context"
	"fmt"
	"math"

	"github.com/soundprediction/ordinato/pkg/embedder"
)

// EmbeddingRerankerClient implements cross-encoder functionality using
// embeddings. It computes cosine similarity between query and passage
// embeddings to generate relevance scores. While not a true cross-encoder
// (which processes query-document pairs together), it provides good
// reranking performance using bi-encoder embeddings.
type EmbeddingRerankerClient struct {
	embedder embedder.Client
	config   EmbeddingConfig
}

// EmbeddingConfig holds embedding-specific configuration
type EmbeddingConfig struct {
	Config

	// NormalizeScores rescales similarities to the 0-1 range across the
	// candidate set.
	NormalizeScores bool `json:"normalize_scores,omitempty"`
}

// NewEmbeddingRerankerClient creates a new embedding-based reranker client
func NewEmbeddingRerankerClient(embedderClient embedder.Client, config EmbeddingConfig) *EmbeddingRerankerClient {
	return &EmbeddingRerankerClient{
		embedder: embedderClient,
		config:   config,
	}
}

// Rank ranks the given passages based on their relevance to the query using embeddings
func (c *EmbeddingRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	if c.embedder == nil {
		return nil, fmt.Errorf("embedder client is nil")
	}

	queryEmbedding, err := c.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}

	passageEmbeddings, err := c.embedder.Embed(ctx, passages)
	if err != nil {
		return nil, fmt.Errorf("failed to create passage embeddings: %w", err)
	}
	if len(passageEmbeddings) != len(passages) {
		return nil, fmt.Errorf("expected %d passage embeddings, got %d", len(passages), len(passageEmbeddings))
	}

	results := make([]RankedPassage, len(passages))
	for i, passage := range passages {
		results[i] = RankedPassage{
			Index:   i,
			Passage: passage,
			Score:   cosineSimilarity(queryEmbedding, passageEmbeddings[i]),
		}
	}

	if c.config.NormalizeScores {
		normalizeScores(results)
	}

	sortByScore(results)
	return results, nil
}

// normalizeScores rescales scores to 0-1 across the result set. When all
// scores are equal they all become 1.0.
func normalizeScores(results []RankedPassage) {
	if len(results) == 0 {
		return
	}

	minScore, maxScore := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		if r.Score < minScore {
			minScore = r.Score
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}

	if maxScore > minScore {
		scoreRange := maxScore - minScore
		for i := range results {
			results[i].Score = (results[i].Score - minScore) / scoreRange
		}
		return
	}
	for i := range results {
		results[i].Score = 1.0
	}
}

// Close cleans up any resources used by the client
func (c *EmbeddingRerankerClient) Close() error {
	if c.embedder != nil {
		return c.embedder.Close()
	}
	return nil
}

// cosineSimilarity calculates the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
