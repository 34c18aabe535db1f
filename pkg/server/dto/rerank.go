// Package dto defines the request and response bodies of the REST API.
package dto

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrEmptyQuery        = errors.New("query cannot be empty")
	ErrEmptyDocuments    = errors.New("documents cannot be empty")
	ErrEmptyContent      = errors.New("document content cannot be empty")
	ErrQueryTooLong      = errors.New("query exceeds maximum length (64KB)")
	ErrContentTooLong    = errors.New("content exceeds maximum length (1MB)")
	ErrTooManyDocuments  = errors.New("documents count exceeds maximum (1000)")
	ErrInvalidTopK       = errors.New("top_k must be positive")
	ErrTooManyResultSets = errors.New("results count exceeds maximum (32)")
)

// MaxFieldLengths defines maximum sizes for fields to prevent abuse
const (
	MaxQueryLength    = 64 * 1024
	MaxContentLength  = 1024 * 1024 // 1MB
	MaxDocumentsCount = 1000
	MaxResultSets     = 32
)

// Document is a candidate document in a rerank request.
type Document struct {
	ID      string                 `json:"id,omitempty"`
	Content string                 `json:"content" binding:"required"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// Validate performs validation on Document
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Content) == "" {
		return ErrEmptyContent
	}
	if len(d.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}

// RerankRequest represents a request to rerank documents against a query
type RerankRequest struct {
	Query     string     `json:"query" binding:"required"`
	Documents []Document `json:"documents" binding:"required,dive"`

	// Optional per-request overrides
	TopK              *int     `json:"top_k,omitempty"`
	ScaleScore        *bool    `json:"scale_score,omitempty"`
	CalibrationFactor *float64 `json:"calibration_factor,omitempty"`
	ScoreThreshold    *float64 `json:"score_threshold,omitempty"`
}

// Validate performs validation on RerankRequest
func (r *RerankRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	if len(r.Documents) == 0 {
		return ErrEmptyDocuments
	}
	if len(r.Documents) > MaxDocumentsCount {
		return ErrTooManyDocuments
	}
	if r.TopK != nil && *r.TopK <= 0 {
		return ErrInvalidTopK
	}
	for i, doc := range r.Documents {
		if err := doc.Validate(); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return nil
}

// RankedDocument is a scored document in a rerank response.
type RankedDocument struct {
	ID      string                 `json:"id,omitempty"`
	Content string                 `json:"content"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
	Score   float64                `json:"score"`
}

// RerankResponse represents a rerank response
type RerankResponse struct {
	Model     string           `json:"model"`
	Documents []RankedDocument `json:"documents"`
	TookMs    int64            `json:"took_ms"`
}

// JinaRerankRequest is the request body of the Jina-compatible endpoint.
type JinaRerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query" binding:"required"`
	Documents []string `json:"documents" binding:"required"`
	TopN      *int     `json:"top_n,omitempty"`
}

// Validate performs validation on JinaRerankRequest
func (r *JinaRerankRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	if len(r.Documents) == 0 {
		return ErrEmptyDocuments
	}
	if len(r.Documents) > MaxDocumentsCount {
		return ErrTooManyDocuments
	}
	if r.TopN != nil && *r.TopN <= 0 {
		return ErrInvalidTopK
	}
	for i, doc := range r.Documents {
		if strings.TrimSpace(doc) == "" {
			return fmt.Errorf("document %d: %w", i, ErrEmptyContent)
		}
		if len(doc) > MaxContentLength {
			return fmt.Errorf("document %d: %w", i, ErrContentTooLong)
		}
	}
	return nil
}

// JinaRerankResult is a single result of the Jina-compatible endpoint.
type JinaRerankResult struct {
	Index    int `json:"index"`
	Document struct {
		Text string `json:"text"`
	} `json:"document"`
	RelevanceScore float64 `json:"relevance_score"`
}

// JinaRerankResponse is the response body of the Jina-compatible endpoint.
type JinaRerankResponse struct {
	Model   string             `json:"model"`
	Results []JinaRerankResult `json:"results"`
}

// FuseRequest represents a request to fuse multiple ranked ID lists with RRF
type FuseRequest struct {
	Results      [][]string `json:"results" binding:"required"`
	RankConstant int        `json:"rank_constant,omitempty"`
	MinScore     float64    `json:"min_score,omitempty"`
}

// Validate performs validation on FuseRequest
func (r *FuseRequest) Validate() error {
	if len(r.Results) == 0 {
		return ErrEmptyDocuments
	}
	if len(r.Results) > MaxResultSets {
		return ErrTooManyResultSets
	}
	for i, list := range r.Results {
		if len(list) > MaxDocumentsCount {
			return fmt.Errorf("result list %d: %w", i, ErrTooManyDocuments)
		}
	}
	return nil
}

// FuseResponse represents a fusion response
type FuseResponse struct {
	IDs    []string  `json:"ids"`
	Scores []float64 `json:"scores"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
