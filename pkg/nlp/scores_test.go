package nlp

import (
	"testing"
)

func TestParseScores(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		scores  []float64
		wantErr bool
	}{
		{
			name:    "bare array",
			content: "[0.9, 0.1, 0.5]",
			want:    3,
			scores:  []float64{0.9, 0.1, 0.5},
		},
		{
			name:    "scores object",
			content: `{"scores": [0.8, 0.2]}`,
			want:    2,
			scores:  []float64{0.8, 0.2},
		},
		{
			name:    "markdown fenced",
			content: "```json\n[0.7, 0.3]\n```",
			want:    2,
			scores:  []float64{0.7, 0.3},
		},
		{
			name:    "fenced without language tag",
			content: "```\n[1.0]\n```",
			want:    1,
			scores:  []float64{1.0},
		},
		{
			name:    "trailing comma repaired",
			content: "[0.5, 0.25,]",
			want:    2,
			scores:  []float64{0.5, 0.25},
		},
		{
			name:    "integers parse as floats",
			content: "[1, 0]",
			want:    2,
			scores:  []float64{1, 0},
		},
		{
			name:    "empty content",
			content: "   ",
			wantErr: true,
		},
		{
			name:    "wrong count",
			content: "[0.9, 0.1]",
			want:    3,
			wantErr: true,
		},
		{
			name:    "not a list",
			content: `"no scores here"`,
			want:    1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := ParseScores(tt.content, tt.want)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got scores %v", scores)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(scores) != len(tt.scores) {
				t.Fatalf("expected %d scores, got %d", len(tt.scores), len(scores))
			}
			for i := range scores {
				if scores[i] != tt.scores[i] {
					t.Errorf("scores[%d] = %f, want %f", i, scores[i], tt.scores[i])
				}
			}
		})
	}
}

func TestStripMarkdownFences(t *testing.T) {
	if got := stripMarkdownFences("[1, 2]"); got != "[1, 2]" {
		t.Errorf("unfenced content changed: %q", got)
	}
	if got := stripMarkdownFences("```json\n[1]\n```"); got != "[1]" {
		t.Errorf("fenced content not stripped: %q", got)
	}
}
