package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/ordinato"
	"github.com/soundprediction/ordinato/pkg/crossencoder"
	"github.com/soundprediction/ordinato/pkg/server/dto"
)

func newTestRanker(t *testing.T) *ordinato.Ranker {
	t.Helper()

	client := crossencoder.NewMockRerankerClient(crossencoder.DefaultConfig(crossencoder.ProviderMock))
	ranker, err := ordinato.NewRanker(client, ordinato.DefaultRankerConfig())
	if err != nil {
		t.Fatalf("NewRanker failed: %v", err)
	}
	t.Cleanup(func() { ranker.Close() })
	return ranker
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	handler := NewRerankHandler(newTestRanker(t), nil)

	router := gin.New()
	router.POST("/api/v1/rerank", handler.Rerank)
	router.POST("/v1/rerank", handler.JinaRerank)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRerank(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/rerank", dto.RerankRequest{
		Query: "machine learning",
		Documents: []dto.Document{
			{ID: "1", Content: "cooking recipes"},
			{ID: "2", Content: "machine learning systems"},
			{ID: "3", Content: "machine learning pipelines"},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp dto.RerankResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Documents) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(resp.Documents))
	}
	if resp.Documents[0].ID != "2" {
		t.Errorf("Expected document 2 on top, got %s", resp.Documents[0].ID)
	}
	for i := 1; i < len(resp.Documents); i++ {
		if resp.Documents[i-1].Score < resp.Documents[i].Score {
			t.Errorf("Results not sorted: %f < %f", resp.Documents[i-1].Score, resp.Documents[i].Score)
		}
	}
	if resp.Model == "" {
		t.Error("Expected model in response")
	}
}

func TestRerankTopK(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/rerank", dto.RerankRequest{
		Query: "machine learning",
		TopK:  ordinato.Int(1),
		Documents: []dto.Document{
			{Content: "machine learning"},
			{Content: "cooking"},
			{Content: "sports"},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp dto.RerankResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Documents) != 1 {
		t.Fatalf("Expected 1 document, got %d", len(resp.Documents))
	}
}

func TestRerankValidation(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{
			name: "missing query",
			body: dto.RerankRequest{Documents: []dto.Document{{Content: "a"}}},
		},
		{
			name: "no documents",
			body: map[string]interface{}{"query": "q", "documents": []interface{}{}},
		},
		{
			name: "blank content",
			body: map[string]interface{}{
				"query":     "q",
				"documents": []map[string]interface{}{{"content": "   "}},
			},
		},
		{
			name: "invalid top_k",
			body: map[string]interface{}{
				"query":     "q",
				"documents": []map[string]interface{}{{"content": "a"}},
				"top_k":     0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/v1/rerank", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestJinaRerank(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/v1/rerank", dto.JinaRerankRequest{
		Model: "test-model",
		Query: "machine learning",
		Documents: []string{
			"cooking recipes",
			"machine learning systems",
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp dto.JinaRerankResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Model != "test-model" {
		t.Errorf("Expected requested model echoed, got %s", resp.Model)
	}
	// Without top_n all documents come back
	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(resp.Results))
	}
	// Index points back into the request document list
	if resp.Results[0].Index != 1 {
		t.Errorf("Expected index 1 on top, got %d", resp.Results[0].Index)
	}
	if resp.Results[0].Document.Text != "machine learning systems" {
		t.Errorf("Unexpected top document: %s", resp.Results[0].Document.Text)
	}
}

func TestJinaRerankTopN(t *testing.T) {
	router := newTestRouter(t)

	topN := 1
	w := postJSON(t, router, "/v1/rerank", dto.JinaRerankRequest{
		Query: "machine learning",
		TopN:  &topN,
		Documents: []string{
			"machine learning",
			"cooking",
			"gardening",
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp dto.JinaRerankResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(resp.Results))
	}
	if resp.Results[0].Index != 0 {
		t.Errorf("Expected index 0, got %d", resp.Results[0].Index)
	}
}
