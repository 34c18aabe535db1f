package crossencoder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newFakeRerankServer returns a test server implementing the Jina-compatible
// POST /rerank endpoint. Passages are scored by length so the ordering is
// predictable.
func newFakeRerankServer(t *testing.T, wantModel, wantAuth string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("Unexpected method: %s", r.Method)
		}
		if wantAuth != "" && r.Header.Get("Authorization") != wantAuth {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if wantModel != "" && req.Model != wantModel {
			t.Errorf("Expected model %s, got %s", wantModel, req.Model)
		}

		var resp rerankResponse
		for i, doc := range req.Documents {
			result := struct {
				Index    int `json:"index"`
				Document struct {
					Text string `json:"text"`
				} `json:"document"`
				RelevanceScore float64 `json:"relevance_score"`
			}{Index: i, RelevanceScore: float64(len(doc)) / 100.0}
			result.Document.Text = doc
			resp.Results = append(resp.Results, result)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestRerankerClient(t *testing.T) {
	server := newFakeRerankServer(t, "test-model", "")
	defer server.Close()

	client := NewVLLMRerankerClient(server.URL, "test-model")
	defer client.Close()

	ctx := context.Background()
	passages := []string{
		"short",
		"a somewhat longer passage about machine learning",
		"medium length passage",
	}

	results, err := client.Rank(ctx, "machine learning", passages)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(results) != len(passages) {
		t.Fatalf("Expected %d results, got %d", len(passages), len(results))
	}

	// The fake server scores by length, so the longest passage ranks first
	if results[0].Index != 1 {
		t.Errorf("Expected index 1 on top, got %d", results[0].Index)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Score < results[i].Score {
			t.Errorf("Results not sorted by score: %f < %f", results[i-1].Score, results[i].Score)
		}
	}
}

func TestRerankerClientBatching(t *testing.T) {
	server := newFakeRerankServer(t, "", "")
	defer server.Close()

	client := NewRerankerClient(RerankerConfig{
		Config:  Config{Model: "test-model", BatchSize: 2},
		BaseURL: server.URL,
	})
	defer client.Close()

	ctx := context.Background()
	passages := []string{"aa", "bbbb", "cccccc", "dddddddd", "e"}

	results, err := client.Rank(ctx, "query", passages)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(results) != len(passages) {
		t.Fatalf("Expected %d results, got %d", len(passages), len(results))
	}

	// Indices must map back to the full input slice across batches
	seen := make(map[int]bool)
	for _, result := range results {
		if result.Index < 0 || result.Index >= len(passages) {
			t.Fatalf("Index %d out of range", result.Index)
		}
		if seen[result.Index] {
			t.Fatalf("Index %d returned twice", result.Index)
		}
		seen[result.Index] = true
		if result.Passage != passages[result.Index] {
			t.Errorf("Index %d does not match its passage: %q", result.Index, result.Passage)
		}
	}

	// Longest passage wins regardless of which batch it was in
	if results[0].Index != 3 {
		t.Errorf("Expected index 3 on top, got %d", results[0].Index)
	}
}

func TestRerankerClientAuth(t *testing.T) {
	server := newFakeRerankServer(t, "", "Bearer secret-key")
	defer server.Close()

	client := NewLocalAIRerankerClient(server.URL, "test-model", "secret-key")
	defer client.Close()

	ctx := context.Background()
	if _, err := client.Rank(ctx, "query", []string{"one", "two"}); err != nil {
		t.Fatalf("Expected no error with valid key, got: %v", err)
	}

	unauthed := NewLocalAIRerankerClient(server.URL, "test-model", "")
	defer unauthed.Close()

	if _, err := unauthed.Rank(ctx, "query", []string{"one", "two"}); err == nil {
		t.Fatal("Expected error without API key, got nil")
	}
}

func TestRerankerClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewVLLMRerankerClient(server.URL, "test-model")
	defer client.Close()

	_, err := client.Rank(context.Background(), "query", []string{"one"})
	if err == nil {
		t.Fatal("Expected error for server failure, got nil")
	}
}

func TestRerankerClientEmptyPassages(t *testing.T) {
	// No server needed; empty input short-circuits before any request
	client := NewVLLMRerankerClient("http://localhost:1", "test-model")
	defer client.Close()

	results, err := client.Rank(context.Background(), "query", []string{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Expected 0 results, got %d", len(results))
	}
}

func TestJinaRerankerClientDefaults(t *testing.T) {
	client := NewJinaRerankerClient("key", "jina-reranker-v2-base-multilingual")
	defer client.Close()

	if client.config.BaseURL != jinaBaseURL {
		t.Errorf("Expected base URL %s, got %s", jinaBaseURL, client.config.BaseURL)
	}
	if client.config.Timeout != defaultRerankerTimeout {
		t.Errorf("Expected default timeout, got %v", client.config.Timeout)
	}
	if client.config.BatchSize <= 0 {
		t.Errorf("Expected positive default batch size, got %d", client.config.BatchSize)
	}
}
