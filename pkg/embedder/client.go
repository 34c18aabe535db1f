package embedder

import "context"

// Client defines the interface for text embedding operations.
type Client interface {
	// Embed generates embeddings for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the number of dimensions in the embeddings.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Config holds configuration for embedding clients.
type Config struct {
	Model string `json:"model"`

	// BaseURL is a custom base URL for OpenAI-compatible services.
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the embedding dimensionality. Zero means the provider
	// default.
	Dimensions int `json:"dimensions,omitempty"`

	// BatchSize is the number of texts embedded per request.
	BatchSize int `json:"batch_size,omitempty"`
}
