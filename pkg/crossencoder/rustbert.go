package crossencoder

import (
	"context"
	"fmt"

	"github.com/soundprediction/ordinato/pkg/rustbert"
)

// RustBertRerankerClient implements the Client interface using a local
// go-rust-bert question-answering model. The confidence of the best answer
// extracted from a passage serves as its relevance score. Inference runs in
// process; no network calls.
type RustBertRerankerClient struct {
	client *rustbert.Client
	config Config
}

// NewRustBertRerankerClient creates a new RustBert-based reranker client. The
// model loads on WarmUp or on the first Rank call.
func NewRustBertRerankerClient(config Config) *RustBertRerankerClient {
	return &RustBertRerankerClient{
		client: rustbert.NewClient(),
		config: config,
	}
}

// WarmUp loads the model eagerly.
func (c *RustBertRerankerClient) WarmUp(ctx context.Context) error {
	return c.client.LoadQAModel()
}

// Rank ranks the given passages based on their relevance to the query.
// Passages are scored sequentially; the underlying runtime does not support
// concurrent prediction.
func (c *RustBertRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	ranked := make([]RankedPassage, len(passages))
	for i, passage := range passages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, err := c.client.RelevanceScore(query, passage)
		if err != nil {
			return nil, fmt.Errorf("error scoring passage %d: %w", i, err)
		}
		ranked[i] = RankedPassage{Index: i, Passage: passage, Score: score}
	}

	sortByScore(ranked)
	return ranked, nil
}

// Close cleans up any resources used by the client.
func (c *RustBertRerankerClient) Close() error {
	c.client.Close()
	return nil
}
