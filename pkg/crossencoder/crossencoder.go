package crossencoder

import (
	"fmt"

	"github.com/soundprediction/ordinato/pkg/embedder"
	"github.com/soundprediction/ordinato/pkg/nlp"
)

// Provider represents the type of cross-encoder provider
type Provider string

const (
	// ProviderEmbedEverything uses go-embedeverything for local reranking
	// with pretrained cross-encoder models.
	ProviderEmbedEverything Provider = "embedeverything"

	// ProviderReranker uses Jina-compatible reranking APIs (Jina, vLLM, LocalAI, etc.)
	ProviderReranker Provider = "reranker"

	// ProviderRustBert uses a local go-rust-bert model for scoring
	ProviderRustBert Provider = "rustbert"

	// ProviderOpenAI uses an LLM API for reranking via classification prompts
	ProviderOpenAI Provider = "openai"

	// ProviderEmbedding uses embedding-based cosine similarity for reranking
	ProviderEmbedding Provider = "embedding"

	// ProviderLocal uses local text similarity algorithms
	ProviderLocal Provider = "local"

	// ProviderMock uses a deterministic implementation for testing
	ProviderMock Provider = "mock"
)

// ClientConfig holds configuration for creating cross-encoder clients
type ClientConfig struct {
	Provider Provider `json:"provider"`
	Config   Config   `json:"config"`

	// LLMClient is required for the openai provider. Not serialized, passed
	// at runtime.
	LLMClient nlp.Client `json:"-"`

	// EmbedderClient is required for the embedding provider.
	EmbedderClient embedder.Client `json:"-"`

	// RerankerConfig carries Jina-compatible reranker settings.
	RerankerConfig *RerankerConfig `json:"reranker_config,omitempty"`

	// EmbeddingConfig carries embedding-specific settings.
	EmbeddingConfig *EmbeddingConfig `json:"embedding_config,omitempty"`
}

// NewClient creates a new cross-encoder client based on the provider type
func NewClient(clientConfig ClientConfig) (Client, error) {
	switch clientConfig.Provider {
	case ProviderEmbedEverything:
		client, err := NewEmbedEverythingClient(clientConfig.Config)
		if err != nil {
			return nil, err
		}
		return client, nil

	case ProviderReranker:
		rerankerConfig := RerankerConfig{Config: clientConfig.Config}
		if clientConfig.RerankerConfig != nil {
			rerankerConfig = *clientConfig.RerankerConfig
		}
		return NewRerankerClient(rerankerConfig), nil

	case ProviderRustBert:
		return NewRustBertRerankerClient(clientConfig.Config), nil

	case ProviderOpenAI:
		if clientConfig.LLMClient == nil {
			return nil, fmt.Errorf("LLM client is required for openai provider")
		}
		return NewOpenAIRerankerClient(clientConfig.LLMClient, clientConfig.Config), nil

	case ProviderEmbedding:
		if clientConfig.EmbedderClient == nil {
			return nil, fmt.Errorf("embedder client is required for embedding provider")
		}
		embeddingConfig := EmbeddingConfig{Config: clientConfig.Config}
		if clientConfig.EmbeddingConfig != nil {
			embeddingConfig = *clientConfig.EmbeddingConfig
		}
		return NewEmbeddingRerankerClient(clientConfig.EmbedderClient, embeddingConfig), nil

	case ProviderLocal:
		return NewLocalRerankerClient(clientConfig.Config), nil

	case ProviderMock:
		return NewMockRerankerClient(clientConfig.Config), nil

	default:
		return nil, fmt.Errorf("unsupported cross-encoder provider: %s", clientConfig.Provider)
	}
}

// DefaultConfig returns a default configuration for the given provider
func DefaultConfig(provider Provider) Config {
	switch provider {
	case ProviderEmbedEverything:
		return Config{
			Model:          "cross-encoder/ms-marco-MiniLM-L-6-v2",
			BatchSize:      100, // Local processing can handle large batches
			MaxConcurrency: 1,   // Local inference is single-threaded
		}
	case ProviderReranker:
		return Config{
			Model:          "BAAI/bge-reranker-base",
			BatchSize:      100, // Jina-compatible APIs can handle large batches
			MaxConcurrency: 3,   // Conservative for external APIs
		}
	case ProviderRustBert:
		return Config{
			BatchSize:      32,
			MaxConcurrency: 1,
		}
	case ProviderOpenAI:
		return Config{
			Model:          "gpt-4o-mini",
			BatchSize:      10,
			MaxConcurrency: 5,
		}
	case ProviderEmbedding:
		return Config{
			BatchSize:      50,
			MaxConcurrency: 10, // Embeddings are typically fast
		}
	case ProviderLocal, ProviderMock:
		return Config{
			BatchSize: 100,
		}
	default:
		return Config{}
	}
}
