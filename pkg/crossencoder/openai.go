package crossencoder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/soundprediction/ordinato/pkg/nlp"
	"github.com/soundprediction/ordinato/pkg/types"
)

// OpenAIRerankerClient implements cross-encoder functionality using an LLM
// API. With a batch size above one it scores a group of passages per prompt,
// parsing a JSON score array out of the reply. With a batch size of one it
// runs a boolean classifier prompt concurrently for each passage and converts
// the first generated token's log-probability into a relevance score.
type OpenAIRerankerClient struct {
	client    nlp.Client
	config    Config
	semaphore chan struct{} // Controls concurrency
}

// NewOpenAIRerankerClient creates a new LLM-based reranker client
func NewOpenAIRerankerClient(llmClient nlp.Client, config Config) *OpenAIRerankerClient {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}

	return &OpenAIRerankerClient{
		client:    llmClient,
		config:    config,
		semaphore: make(chan struct{}, config.MaxConcurrency),
	}
}

// Rank ranks the given passages based on their relevance to the query
func (c *OpenAIRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	var (
		scores []float64
		err    error
	)
	if c.config.BatchSize > 1 {
		scores, err = c.scoreBatched(ctx, query, passages)
	} else {
		scores, err = c.scoreIndividually(ctx, query, passages)
	}
	if err != nil {
		return nil, err
	}

	rankedPassages := make([]RankedPassage, 0, len(passages))
	for i, score := range scores {
		rankedPassages = append(rankedPassages, RankedPassage{
			Index:   i,
			Passage: passages[i],
			Score:   score,
		})
	}

	sortByScore(rankedPassages)
	return rankedPassages, nil
}

// errUnparsableScores marks a batch reply that did not contain a usable score
// array.
var errUnparsableScores = errors.New("unparsable batch scores")

// scoreBatched scores passages in groups of BatchSize, one prompt per group.
// A group whose reply cannot be parsed falls back to individual
// classification, so one malformed reply does not fail the whole call.
func (c *OpenAIRerankerClient) scoreBatched(ctx context.Context, query string, passages []string) ([]float64, error) {
	scores := make([]float64, len(passages))

	for start := 0; start < len(passages); start += c.config.BatchSize {
		end := start + c.config.BatchSize
		if end > len(passages) {
			end = len(passages)
		}
		batch := passages[start:end]

		batchScores, err := c.scoreBatch(ctx, query, batch)
		if errors.Is(err, errUnparsableScores) {
			for i, passage := range batch {
				score, err := c.scorePassage(ctx, query, passage)
				if err != nil {
					return nil, fmt.Errorf("error scoring passage %d: %w", start+i, err)
				}
				scores[start+i] = score
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		copy(scores[start:end], batchScores)
	}

	return scores, nil
}

// scoreBatch scores one group of passages with a single prompt. The model is
// asked for a JSON array of scores in passage order; the reply goes through
// nlp.ParseScores, which repairs fenced or malformed JSON before parsing.
func (c *OpenAIRerankerClient) scoreBatch(ctx context.Context, query string, passages []string) ([]float64, error) {
	var sb strings.Builder
	for i, passage := range passages {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, passage)
	}

	messages := []types.Message{
		nlp.NewSystemMessage("You are an expert tasked with rating how relevant passages are to a query"),
		nlp.NewUserMessage(fmt.Sprintf(`Rate the relevance of each numbered passage to QUERY with a number between 0 and 1.
Respond with a JSON array of exactly %d numbers in passage order and nothing else.
<QUERY>
%s
</QUERY>
<PASSAGES>
%s</PASSAGES>`, len(passages), query, sb.String())),
	}

	response, err := c.client.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch response: %w", err)
	}

	scores, err := nlp.ParseScores(response.Content, len(passages))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnparsableScores, err)
	}
	return scores, nil
}

// scoreIndividually classifies every passage on its own, concurrently up to
// MaxConcurrency.
func (c *OpenAIRerankerClient) scoreIndividually(ctx context.Context, query string, passages []string) ([]float64, error) {
	type passageResult struct {
		score float64
		err   error
	}

	results := make([]passageResult, len(passages))
	var wg sync.WaitGroup

	// Process passages concurrently with semaphore for rate limiting
	for i, passage := range passages {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()

			c.semaphore <- struct{}{}
			defer func() { <-c.semaphore }()

			score, err := c.scorePassage(ctx, query, p)
			results[idx] = passageResult{score: score, err: err}
		}(i, passage)
	}

	wg.Wait()

	scores := make([]float64, len(passages))
	for i, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("error scoring passage %d: %w", i, result.err)
		}
		scores[i] = result.score
	}
	return scores, nil
}

// scorePassage scores a single passage against the query. The prompt asks for
// a True/False relevance verdict; when log-probabilities are available the
// score is P(first token) for "True" and 1-P for "False", otherwise a coarse
// score is derived from the verdict alone.
func (c *OpenAIRerankerClient) scorePassage(ctx context.Context, query, passage string) (float64, error) {
	messages := []types.Message{
		nlp.NewSystemMessage("You are an expert tasked with determining whether the passage is relevant to the query"),
		nlp.NewUserMessage(fmt.Sprintf(`Respond with "True" if PASSAGE is relevant to QUERY and "False" otherwise.
<PASSAGE>
%s
</PASSAGE>
<QUERY>
%s
</QUERY>`, passage, query)),
	}

	response, err := c.client.ChatWithLogProbs(ctx, messages)
	if err != nil {
		return 0, fmt.Errorf("failed to get response: %w", err)
	}

	verdict := firstWord(response.Content)
	positive := false
	switch strings.ToLower(verdict) {
	case "true", "yes":
		positive = true
	case "false", "no":
		positive = false
	default:
		return 0.5, nil // Neutral score for ambiguous responses
	}

	if len(response.LogProbs) > 0 {
		p := math.Exp(response.LogProbs[0].LogProb)
		if p > 1 {
			p = 1
		}
		if positive {
			return p, nil
		}
		return 1 - p, nil
	}

	// No log-probabilities available; fall back to coarse scores.
	if positive {
		return 0.8, nil
	}
	return 0.2, nil
}

// firstWord returns the first whitespace-delimited token of s.
func firstWord(s string) string {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,:;\"'")
}

// Close cleans up any resources used by the client
func (c *OpenAIRerankerClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
