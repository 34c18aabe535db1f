package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soundprediction/ordinato"
	"github.com/soundprediction/ordinato/pkg/config"
	"github.com/soundprediction/ordinato/pkg/crossencoder"
	"github.com/soundprediction/ordinato/pkg/server/dto"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	client := crossencoder.NewMockRerankerClient(crossencoder.DefaultConfig(crossencoder.ProviderMock))
	ranker, err := ordinato.NewRanker(client, ordinato.DefaultRankerConfig())
	if err != nil {
		t.Fatalf("NewRanker failed: %v", err)
	}
	t.Cleanup(func() { ranker.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: 8080, Mode: "test"},
	}

	s := New(cfg, ranker, nil)
	s.Setup()
	return s
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer(t)

	// Health endpoint responds
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /health: expected 200, got %d", w.Code)
	}

	// Rerank endpoint responds
	body, _ := json.Marshal(dto.RerankRequest{
		Query:     "test",
		Documents: []dto.Document{{Content: "test document"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rerank", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("POST /api/v1/rerank: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Request ID middleware sets the header
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header to be set")
	}

	// Jina-compatible endpoint responds
	body, _ = json.Marshal(dto.JinaRerankRequest{
		Query:     "test",
		Documents: []string{"test document"},
	})
	req = httptest.NewRequest(http.MethodPost, "/v1/rerank", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("POST /v1/rerank: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestServerCORS(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/rerank", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("OPTIONS preflight: expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS allow-origin header")
	}
}

func TestServerPreservesRequestID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("Expected request id to be preserved, got %q", got)
	}
}
