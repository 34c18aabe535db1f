package types

// Role identifies the author of a chat message.
type Role string

// Message represents a single chat message sent to a language model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenLogProb holds the log-probability of a single generated token.
type TokenLogProb struct {
	Token   string  `json:"token"`
	LogProb float64 `json:"logprob"`
}

// Response represents a language model response.
type Response struct {
	Content string `json:"content"`

	// LogProbs holds per-token log-probabilities for the generated content,
	// when the provider supports them and they were requested.
	LogProbs []TokenLogProb `json:"logprobs,omitempty"`

	// TokensUsed tracks usage for telemetry. Zero when the provider does not
	// report usage.
	TokensUsed int `json:"tokens_used,omitempty"`
}

// ContextKey is the type for context values recognized by ordinato.
type ContextKey string

const (
	// ContextKeyRequestID carries the per-request ID assigned by the server.
	ContextKeyRequestID ContextKey = "ordinato_request_id"
	// ContextKeyRequestSource identifies the origin of a request (api, cli).
	ContextKeyRequestSource ContextKey = "ordinato_request_source"
)
