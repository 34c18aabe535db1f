package crossencoder

import (
	"context"
	"strings"
)

// MockRerankerClient implements the Client interface with a deterministic
// scoring rule for testing. The score is the fraction of query terms present
// in the passage, slightly dampened by passage position so ties break
// predictably.
type MockRerankerClient struct {
	config Config

	// RankFunc, when set, replaces the default scoring entirely.
	RankFunc func(ctx context.Context, query string, passages []string) ([]RankedPassage, error)
}

// NewMockRerankerClient creates a new mock reranker client
func NewMockRerankerClient(config Config) *MockRerankerClient {
	return &MockRerankerClient{config: config}
}

// Rank ranks the given passages deterministically.
func (c *MockRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if c.RankFunc != nil {
		return c.RankFunc(ctx, query, passages)
	}

	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	queryTerms := strings.Fields(strings.ToLower(query))

	ranked := make([]RankedPassage, len(passages))
	for i, passage := range passages {
		ranked[i] = RankedPassage{
			Index:   i,
			Passage: passage,
			Score:   mockScore(queryTerms, passage, i, len(passages)),
		}
	}

	sortByScore(ranked)
	return ranked, nil
}

// mockScore computes the fraction of query terms contained in the passage,
// minus a small position penalty so equal-overlap passages keep input order
// distinctly.
func mockScore(queryTerms []string, passage string, position, total int) float64 {
	if len(queryTerms) == 0 {
		return 0.0
	}

	lowered := strings.ToLower(passage)
	matched := 0
	for _, term := range queryTerms {
		if strings.Contains(lowered, term) {
			matched++
		}
	}

	overlap := float64(matched) / float64(len(queryTerms))
	penalty := float64(position) / float64(total*100)
	return overlap*0.9 - penalty
}

// Close cleans up any resources used by the client
func (c *MockRerankerClient) Close() error {
	return nil
}
