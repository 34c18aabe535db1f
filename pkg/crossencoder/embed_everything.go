package crossencoder

import (
	"context"
	"fmt"
	"sync"

	"github.com/soundprediction/go-embedeverything/pkg/embedder"
)

// EmbedEverythingClient implements the Client interface using the
// go-embedeverything library. The model is downloaded (if needed) and loaded
// into the process on WarmUp, or lazily on the first Rank call.
type EmbedEverythingClient struct {
	config   Config
	mu       sync.Mutex
	reranker *embedder.Reranker
}

// NewEmbedEverythingClient creates a new EmbedEverything reranker client. The
// model is not loaded yet; call WarmUp to load it eagerly.
func NewEmbedEverythingClient(config Config) (*EmbedEverythingClient, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("model is required for the embedeverything provider")
	}
	return &EmbedEverythingClient{config: config}, nil
}

// WarmUp loads the model. Safe to call more than once.
func (e *EmbedEverythingClient) WarmUp(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.reranker != nil {
		return nil
	}

	reranker, err := embedder.NewReranker(e.config.Model)
	if err != nil {
		return fmt.Errorf("failed to load reranker model %q: %w", e.config.Model, err)
	}
	e.reranker = reranker
	return nil
}

// Rank ranks the given passages based on their relevance to the query.
func (e *EmbedEverythingClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	if err := e.WarmUp(ctx); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// go-embedeverything does not support context yet
	results, err := e.reranker.Rerank(query, passages)
	if err != nil {
		return nil, fmt.Errorf("failed to rerank passages: %w", err)
	}
	if len(results) != len(passages) {
		return nil, fmt.Errorf("reranker returned %d results for %d passages", len(results), len(passages))
	}

	// The library identifies passages by text only. Recover input indices by
	// consuming positions per text so duplicate passages stay distinct.
	positions := make(map[string][]int, len(passages))
	for i, p := range passages {
		positions[p] = append(positions[p], i)
	}

	rankedPassages := make([]RankedPassage, len(results))
	for i, result := range results {
		idxs := positions[result.Text]
		if len(idxs) == 0 {
			return nil, fmt.Errorf("reranker returned unknown passage text")
		}
		positions[result.Text] = idxs[1:]

		rankedPassages[i] = RankedPassage{
			Index:   idxs[0],
			Passage: result.Text,
			Score:   float64(result.Score),
		}
	}

	sortByScore(rankedPassages)
	return rankedPassages, nil
}

// Close cleans up any resources.
func (e *EmbedEverythingClient) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.reranker != nil {
		e.reranker.Close()
		e.reranker = nil
	}
	return nil
}
