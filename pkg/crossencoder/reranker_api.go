package crossencoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	jinaBaseURL            = "https://api.jina.ai/v1"
	defaultRerankerTimeout = 60 * time.Second
)

// RerankerConfig holds configuration for Jina-compatible reranking services.
type RerankerConfig struct {
	Config

	// BaseURL is the service base URL, e.g. "http://localhost:8000/v1".
	// The client POSTs to BaseURL + "/rerank".
	BaseURL string `json:"base_url"`

	// APIKey is sent as a Bearer token when non-empty.
	APIKey string `json:"-"`

	// Timeout bounds each HTTP request. Defaults to 60s.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// RerankerClient implements the Client interface against Jina-compatible
// reranking APIs. vLLM, LocalAI, Jina AI and Text Embeddings Inference all
// expose this POST /rerank shape.
type RerankerClient struct {
	config     RerankerConfig
	httpClient *http.Client
}

// NewRerankerClient creates a client for any Jina-compatible reranking service.
func NewRerankerClient(config RerankerConfig) *RerankerClient {
	if config.Timeout <= 0 {
		config.Timeout = defaultRerankerTimeout
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig(ProviderReranker).BatchSize
	}

	return &RerankerClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// NewVLLMRerankerClient creates a reranker client for a vLLM server.
func NewVLLMRerankerClient(baseURL, model string) *RerankerClient {
	return NewRerankerClient(RerankerConfig{
		Config:  Config{Model: model},
		BaseURL: baseURL,
	})
}

// NewJinaRerankerClient creates a reranker client for the Jina AI API.
func NewJinaRerankerClient(apiKey, model string) *RerankerClient {
	return NewRerankerClient(RerankerConfig{
		Config:  Config{Model: model},
		BaseURL: jinaBaseURL,
		APIKey:  apiKey,
	})
}

// NewLocalAIRerankerClient creates a reranker client for a LocalAI server.
// apiKey may be empty if the server does not require one.
func NewLocalAIRerankerClient(baseURL, model, apiKey string) *RerankerClient {
	return NewRerankerClient(RerankerConfig{
		Config:  Config{Model: model},
		BaseURL: baseURL,
		APIKey:  apiKey,
	})
}

// rerankRequest is the Jina-compatible request body.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

// rerankResponse is the Jina-compatible response body.
type rerankResponse struct {
	Results []struct {
		Index    int `json:"index"`
		Document struct {
			Text string `json:"text"`
		} `json:"document"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rank ranks the given passages based on their relevance to the query.
// Passages are sent in batches of BatchSize and results merged.
func (c *RerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	ranked := make([]RankedPassage, 0, len(passages))
	for start := 0; start < len(passages); start += c.config.BatchSize {
		end := start + c.config.BatchSize
		if end > len(passages) {
			end = len(passages)
		}

		batch, err := c.rerankBatch(ctx, query, passages[start:end])
		if err != nil {
			return nil, err
		}
		for _, r := range batch {
			r.Index += start
			ranked = append(ranked, r)
		}
	}

	sortByScore(ranked)
	return ranked, nil
}

// rerankBatch sends one batch to the service. Indices in the result are
// relative to the batch.
func (c *RerankerClient) rerankBatch(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	body, err := json.Marshal(rerankRequest{
		Model:     c.config.Model,
		Query:     query,
		Documents: passages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/rerank"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain the body so the connection can be reused. The body is not
		// included in the error; it may contain sensitive upstream details.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("rerank API returned status %d", resp.StatusCode)
	}

	var rerankResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}

	ranked := make([]RankedPassage, 0, len(rerankResp.Results))
	for _, result := range rerankResp.Results {
		if result.Index < 0 || result.Index >= len(passages) {
			return nil, fmt.Errorf("rerank API returned out-of-range index %d", result.Index)
		}
		passage := result.Document.Text
		if passage == "" {
			passage = passages[result.Index]
		}
		ranked = append(ranked, RankedPassage{
			Index:   result.Index,
			Passage: passage,
			Score:   result.RelevanceScore,
		})
	}

	if len(ranked) != len(passages) {
		return nil, fmt.Errorf("rerank API returned %d results for %d passages", len(ranked), len(passages))
	}
	return ranked, nil
}

// Close cleans up any resources used by the client.
func (c *RerankerClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
