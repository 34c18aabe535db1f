// Package rustbert wraps go-rust-bert models for local, in-process relevance
// scoring. Models are loaded lazily on first use and guarded by a mutex; the
// underlying runtime is not safe for concurrent prediction.
package rustbert

import (
	"fmt"
	"sync"

	"github.com/soundprediction/go-rust-bert/pkg/rustbert"
)

// Client wraps a go-rust-bert question-answering model. Treating the query as
// a question and the passage as its context, the confidence of the best
// extracted answer serves as a query/passage relevance proxy.
type Client struct {
	mu      sync.Mutex
	qaModel *rustbert.QAModel
}

// NewClient creates a new RustBert client. The model is not loaded yet; it
// loads on the first call to RelevanceScore, or eagerly via LoadQAModel.
func NewClient() *Client {
	return &Client{}
}

// LoadQAModel loads the question answering model. Safe to call more than once.
func (c *Client) LoadQAModel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadQAModelLocked()
}

// loadQAModelLocked loads the model. Caller must hold the lock.
func (c *Client) loadQAModelLocked() error {
	if c.qaModel != nil {
		return nil
	}

	m, err := rustbert.NewQAModel()
	if err != nil {
		return fmt.Errorf("failed to create QA model: %w", err)
	}
	c.qaModel = m
	return nil
}

// RelevanceScore scores how relevant a passage is to a query. The score is
// the confidence of the best answer the QA model extracts from the passage;
// a passage with no extractable answer scores 0.
func (c *Client) RelevanceScore(query, passage string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadQAModelLocked(); err != nil {
		return 0, err
	}

	answers, err := c.qaModel.Predict(query, passage)
	if err != nil {
		return 0, fmt.Errorf("QA prediction failed: %w", err)
	}
	if len(answers) == 0 {
		return 0, nil
	}

	best := answers[0].Score
	for _, a := range answers[1:] {
		if a.Score > best {
			best = a.Score
		}
	}
	return best, nil
}

// Close closes the loaded model.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.qaModel != nil {
		c.qaModel.Close()
		c.qaModel = nil
	}
}
