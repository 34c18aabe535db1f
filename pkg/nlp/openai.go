package nlp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/soundprediction/ordinato/pkg/types"
)

// OpenAIClient implements the Client interface using the OpenAI API or any
// OpenAI-compatible service (via Config.BaseURL).
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string, config Config) *OpenAIClient {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Chat implements the Client interface.
func (c *OpenAIClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	return c.chat(ctx, messages, false)
}

// ChatWithLogProbs implements the Client interface.
func (c *OpenAIClient) ChatWithLogProbs(ctx context.Context, messages []types.Message) (*types.Response, error) {
	return c.chat(ctx, messages, true)
}

func (c *OpenAIClient) chat(ctx context.Context, messages []types.Message, logProbs bool) (*types.Response, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: toOpenAIMessages(messages),
		Stop:     c.config.Stop,
	}
	if c.config.Temperature != nil {
		req.Temperature = *c.config.Temperature
	}
	if c.config.MaxTokens != nil {
		req.MaxTokens = *c.config.MaxTokens
	}
	if logProbs {
		req.LogProbs = true
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, translateOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewEmptyResponseError("chat completion returned no choices")
	}

	choice := resp.Choices[0]
	response := &types.Response{
		Content:    choice.Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}

	if logProbs && choice.LogProbs != nil {
		for _, lp := range choice.LogProbs.Content {
			response.LogProbs = append(response.LogProbs, types.TokenLogProb{
				Token:   lp.Token,
				LogProb: lp.LogProb,
			})
		}
	}

	return response, nil
}

// Close implements the Client interface.
func (c *OpenAIClient) Close() error {
	return nil
}

func toOpenAIMessages(messages []types.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}
	return out
}

// translateOpenAIError maps API errors to the package's error types so retry
// logic can classify them.
func translateOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimit, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrInvalidModel, apiErr.Message)
		}
	}
	return fmt.Errorf("chat completion failed: %w", err)
}
