package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/ordinato"
	"github.com/soundprediction/ordinato/pkg/server/dto"
	"github.com/soundprediction/ordinato/pkg/types"
)

// Ranker is the subset of ordinato.Ranker the handlers need.
type Ranker interface {
	Rank(ctx context.Context, query string, documents []types.Document, options *ordinato.RankOptions) ([]types.Document, error)
	WarmUp(ctx context.Context) error
	Config() ordinato.RankerConfig
}

// RerankHandler handles rerank requests
type RerankHandler struct {
	ranker Ranker
	logger *slog.Logger
}

// NewRerankHandler creates a new rerank handler
func NewRerankHandler(ranker Ranker, logger *slog.Logger) *RerankHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RerankHandler{ranker: ranker, logger: logger}
}

// Rerank handles POST /api/v1/rerank
func (h *RerankHandler) Rerank(c *gin.Context) {
	var req dto.RerankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	documents := make([]types.Document, len(req.Documents))
	for i, doc := range req.Documents {
		documents[i] = types.Document{
			Uuid:    doc.ID,
			Content: doc.Content,
			Meta:    doc.Meta,
		}
	}

	options := &ordinato.RankOptions{
		TopK:              req.TopK,
		ScaleScore:        req.ScaleScore,
		CalibrationFactor: req.CalibrationFactor,
		ScoreThreshold:    req.ScoreThreshold,
	}

	start := time.Now()
	ranked, err := h.ranker.Rank(c.Request.Context(), req.Query, documents, options)
	if err != nil {
		h.logger.Error("rerank failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "rerank failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	results := make([]dto.RankedDocument, len(ranked))
	for i, doc := range ranked {
		results[i] = dto.RankedDocument{
			ID:      doc.Uuid,
			Content: doc.Content,
			Meta:    doc.Meta,
			Score:   *doc.Score,
		}
	}

	c.JSON(http.StatusOK, dto.RerankResponse{
		Model:     h.ranker.Config().Model,
		Documents: results,
		TookMs:    time.Since(start).Milliseconds(),
	})
}

// JinaRerank handles POST /v1/rerank in the Jina-compatible shape, so the
// service can stand in for vLLM, LocalAI or Jina behind existing clients.
func (h *RerankHandler) JinaRerank(c *gin.Context) {
	var req dto.JinaRerankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	documents := make([]types.Document, len(req.Documents))
	for i, text := range req.Documents {
		documents[i] = types.Document{Content: text}
	}

	// The Jina API returns every document unless top_n is given
	options := &ordinato.RankOptions{TopK: req.TopN}
	if req.TopN == nil {
		options.TopK = ordinato.Int(len(documents))
	}

	ranked, err := h.ranker.Rank(c.Request.Context(), req.Query, documents, options)
	if err != nil {
		h.logger.Error("rerank failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "rerank failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	// Map contents back to request indices. Duplicate texts consume
	// positions in order, matching the ranker's stable ordering.
	positions := make(map[string][]int, len(req.Documents))
	for i, text := range req.Documents {
		positions[text] = append(positions[text], i)
	}

	model := req.Model
	if model == "" {
		model = h.ranker.Config().Model
	}

	results := make([]dto.JinaRerankResult, len(ranked))
	for i, doc := range ranked {
		idxs := positions[doc.Content]
		idx := -1
		if len(idxs) > 0 {
			idx = idxs[0]
			positions[doc.Content] = idxs[1:]
		}

		result := dto.JinaRerankResult{
			Index:          idx,
			RelevanceScore: *doc.Score,
		}
		result.Document.Text = doc.Content
		results[i] = result
	}

	c.JSON(http.StatusOK, dto.JinaRerankResponse{
		Model:   model,
		Results: results,
	})
}
