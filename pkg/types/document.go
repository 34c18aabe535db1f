package types

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrEmptyContent = errors.New("content cannot be empty")
	ErrEmptyQuery   = errors.New("query cannot be empty")
	ErrInvalidTopK  = errors.New("top_k must be positive")
)

// Document represents a candidate document to be ranked against a query.
type Document struct {
	Uuid    string                 `json:"uuid,omitempty" mapstructure:"uuid"`
	Content string                 `json:"content" mapstructure:"content"`
	Meta    map[string]interface{} `json:"meta,omitempty" mapstructure:"meta"`

	// Score is set by a ranker. Nil means the document has not been scored.
	Score *float64 `json:"score,omitempty" mapstructure:"score"`
}

// Validate checks if the Document has all required fields set.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Content) == "" {
		return ErrEmptyContent
	}
	return nil
}

// PairText builds the text side of a query/document pair. Values of metaFields
// that are present and non-empty in d.Meta are joined with separator, followed
// by the document content. The order of metaFields is preserved.
func (d *Document) PairText(metaFields []string, separator string) string {
	parts := make([]string, 0, len(metaFields)+1)
	for _, field := range metaFields {
		v, ok := d.Meta[field]
		if !ok || v == nil {
			continue
		}
		s := fmt.Sprintf("%v", v)
		if s == "" {
			continue
		}
		parts = append(parts, s)
	}
	parts = append(parts, d.Content)
	return strings.Join(parts, separator)
}

// WithScore returns a copy of the document with the score set.
func (d Document) WithScore(score float64) Document {
	d.Score = &score
	return d
}
