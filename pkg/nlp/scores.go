package nlp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseScores extracts a list of numeric scores from an LLM response. Models
// asked for a JSON array of floats routinely wrap it in markdown fences, emit
// trailing commas, or return an object with a "scores" field; this handles
// all of those, repairing malformed JSON before parsing.
func ParseScores(content string, want int) ([]float64, error) {
	cleaned := stripMarkdownFences(strings.TrimSpace(content))
	if cleaned == "" {
		return nil, NewEmptyResponseError("no content to parse scores from")
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		repaired = cleaned
	}

	var scores []float64
	if err := json.Unmarshal([]byte(repaired), &scores); err != nil {
		// Fall back to the {"scores": [...]} shape.
		var wrapped struct {
			Scores []float64 `json:"scores"`
		}
		if err2 := json.Unmarshal([]byte(repaired), &wrapped); err2 != nil || wrapped.Scores == nil {
			return nil, fmt.Errorf("failed to parse scores from response: %w", err)
		}
		scores = wrapped.Scores
	}

	if want > 0 && len(scores) != want {
		return nil, fmt.Errorf("expected %d scores, got %d", want, len(scores))
	}
	return scores, nil
}

// stripMarkdownFences removes a surrounding ```json ... ``` block if present.
func stripMarkdownFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
