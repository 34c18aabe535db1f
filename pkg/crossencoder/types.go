package crossencoder

import (
	"context"
	"sort"
)

// Client defines the interface for cross-encoder scoring backends.
type Client interface {
	// Rank scores the given passages against the query and returns them
	// sorted by score (descending). Every input passage appears exactly once
	// in the result; Index points back into the input slice so callers can
	// recover the original documents even when passages repeat.
	Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error)

	// Close cleans up any resources.
	Close() error
}

// Warmable is implemented by clients that load a model up front. Clients that
// do not implement it are warmed lazily on the first Rank call.
type Warmable interface {
	WarmUp(ctx context.Context) error
}

// RankedPassage is a single scored passage.
type RankedPassage struct {
	// Index is the position of the passage in the input slice.
	Index int `json:"index"`

	Passage string  `json:"passage"`
	Score   float64 `json:"score"`
}

// Config holds common configuration for cross-encoder clients.
type Config struct {
	// Model is the model name or path, interpreted per provider.
	Model string `json:"model"`

	// BatchSize is the number of passages scored per request for providers
	// that batch.
	BatchSize int `json:"batch_size"`

	// MaxConcurrency bounds concurrent upstream calls for providers that
	// score passages individually.
	MaxConcurrency int `json:"max_concurrency"`
}

// sortByScore orders passages by score descending. The sort is stable so
// equal scores keep input order. Every provider uses this so results are
// ordered consistently.
func sortByScore(passages []RankedPassage) {
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
}
