package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/ordinato/pkg/server/dto"
)

func newFuseRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/fuse", NewFuseHandler().Fuse)
	return router
}

func TestFuse(t *testing.T) {
	router := newFuseRouter(t)

	w := postJSON(t, router, "/api/v1/fuse", dto.FuseRequest{
		Results: [][]string{
			{"a", "b", "c"},
			{"b", "a"},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp dto.FuseResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.IDs) != 3 {
		t.Fatalf("Expected 3 fused ids, got %d", len(resp.IDs))
	}
	if len(resp.Scores) != len(resp.IDs) {
		t.Fatalf("Expected matching scores, got %d for %d ids", len(resp.Scores), len(resp.IDs))
	}
	for i := 1; i < len(resp.Scores); i++ {
		if resp.Scores[i-1] < resp.Scores[i] {
			t.Errorf("Scores not sorted: %f < %f", resp.Scores[i-1], resp.Scores[i])
		}
	}
}

func TestFuseValidation(t *testing.T) {
	router := newFuseRouter(t)

	w := postJSON(t, router, "/api/v1/fuse", map[string]interface{}{"results": []interface{}{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty results, got %d", w.Code)
	}
}
