package crossencoder

import (
	"context"
	"sync"
	"testing"

	"github.com/soundprediction/ordinato/pkg/types"
)

// fakeLLMClient scripts chat responses for LLM reranker tests. Batch prompts
// go through Chat, per-passage classification through ChatWithLogProbs.
type fakeLLMClient struct {
	mu            sync.Mutex
	chatResponses []string
	chatCalls     int
	verdict       string
	logProb       float64
	logProbCalls  int
}

func (f *fakeLLMClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.chatCalls
	f.chatCalls++
	if idx >= len(f.chatResponses) {
		idx = len(f.chatResponses) - 1
	}
	return &types.Response{Content: f.chatResponses[idx]}, nil
}

func (f *fakeLLMClient) ChatWithLogProbs(ctx context.Context, messages []types.Message) (*types.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logProbCalls++
	return &types.Response{
		Content:  f.verdict,
		LogProbs: []types.TokenLogProb{{Token: f.verdict, LogProb: f.logProb}},
	}, nil
}

func (f *fakeLLMClient) Close() error {
	return nil
}

func TestOpenAIRerankerClientBatch(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"plain array", "[0.9, 0.1, 0.5]"},
		{"fenced array", "```json\n[0.9, 0.1, 0.5]\n```"},
		{"trailing comma", "[0.9, 0.1, 0.5,]"},
	}

	passages := []string{"relevant", "irrelevant", "somewhat"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLMClient{chatResponses: []string{tt.response}}
			client := NewOpenAIRerankerClient(llm, DefaultConfig(ProviderOpenAI))
			defer client.Close()

			results, err := client.Rank(context.Background(), "test query", passages)
			if err != nil {
				t.Fatalf("Rank failed: %v", err)
			}

			if llm.chatCalls != 1 {
				t.Errorf("Expected 1 batch call, got %d", llm.chatCalls)
			}
			if llm.logProbCalls != 0 {
				t.Errorf("Expected no per-passage calls, got %d", llm.logProbCalls)
			}

			if len(results) != 3 {
				t.Fatalf("Expected 3 results, got %d", len(results))
			}
			if results[0].Index != 0 || results[0].Score != 0.9 {
				t.Errorf("Expected passage 0 with score 0.9 on top, got index %d score %f",
					results[0].Index, results[0].Score)
			}
			if results[1].Index != 2 || results[2].Index != 1 {
				t.Errorf("Unexpected ordering: %d, %d", results[1].Index, results[2].Index)
			}
		})
	}
}

func TestOpenAIRerankerClientBatchSplitting(t *testing.T) {
	llm := &fakeLLMClient{chatResponses: []string{"[0.1, 0.2]", "[0.3, 0.4]", "[0.9]"}}

	config := DefaultConfig(ProviderOpenAI)
	config.BatchSize = 2
	client := NewOpenAIRerankerClient(llm, config)
	defer client.Close()

	passages := []string{"a", "b", "c", "d", "e"}
	results, err := client.Rank(context.Background(), "test query", passages)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	if llm.chatCalls != 3 {
		t.Errorf("Expected 3 batch calls for 5 passages with batch size 2, got %d", llm.chatCalls)
	}
	if len(results) != 5 {
		t.Fatalf("Expected 5 results, got %d", len(results))
	}

	// Scores span the batches; the last batch holds the best passage.
	if results[0].Index != 4 || results[0].Score != 0.9 {
		t.Errorf("Expected passage 4 with score 0.9 on top, got index %d score %f",
			results[0].Index, results[0].Score)
	}
}

func TestOpenAIRerankerClientBatchFallback(t *testing.T) {
	// An unparsable batch reply falls back to per-passage classification.
	llm := &fakeLLMClient{
		chatResponses: []string{"I cannot rate these passages."},
		verdict:       "True",
		logProb:       0, // P = 1.0
	}
	client := NewOpenAIRerankerClient(llm, DefaultConfig(ProviderOpenAI))
	defer client.Close()

	passages := []string{"first", "second"}
	results, err := client.Rank(context.Background(), "test query", passages)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	if llm.chatCalls != 1 {
		t.Errorf("Expected 1 batch attempt, got %d", llm.chatCalls)
	}
	if llm.logProbCalls != 2 {
		t.Errorf("Expected 2 fallback calls, got %d", llm.logProbCalls)
	}

	for _, result := range results {
		if result.Score != 1.0 {
			t.Errorf("Expected score 1.0 for passage %d, got %f", result.Index, result.Score)
		}
	}
}

func TestOpenAIRerankerClientIndividual(t *testing.T) {
	llm := &fakeLLMClient{verdict: "False", logProb: 0}

	config := DefaultConfig(ProviderOpenAI)
	config.BatchSize = 1
	client := NewOpenAIRerankerClient(llm, config)
	defer client.Close()

	passages := []string{"first", "second", "third"}
	results, err := client.Rank(context.Background(), "test query", passages)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	if llm.chatCalls != 0 {
		t.Errorf("Expected no batch calls with batch size 1, got %d", llm.chatCalls)
	}
	if llm.logProbCalls != 3 {
		t.Errorf("Expected 3 per-passage calls, got %d", llm.logProbCalls)
	}

	// "False" with P = 1.0 means score 1 - P = 0.
	for _, result := range results {
		if result.Score != 0 {
			t.Errorf("Expected score 0 for passage %d, got %f", result.Index, result.Score)
		}
	}
}
