package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/ordinato/pkg/fusion"
	"github.com/soundprediction/ordinato/pkg/server/dto"
)

// FuseHandler handles rank fusion requests
type FuseHandler struct{}

// NewFuseHandler creates a new fuse handler
func NewFuseHandler() *FuseHandler {
	return &FuseHandler{}
}

// Fuse handles POST /api/v1/fuse
func (h *FuseHandler) Fuse(c *gin.Context) {
	var req dto.FuseRequest
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

	ids, scores := fusion.RRF(req.Results, req.RankConstant, req.MinScore)

	c.JSON(http.StatusOK, dto.FuseResponse{
		IDs:    ids,
		Scores: scores,
	})
}
