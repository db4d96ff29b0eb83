package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/praxislabs/praxis/internal/provider"
	"github.com/praxislabs/praxis/pkg/models"
)

// ProviderRubric scores free-response answers through an AI provider
type ProviderRubric struct {
	provider *provider.Registered
}

// NewProviderRubric creates a provider-backed rubric delegate
func NewProviderRubric(p *provider.Registered) *ProviderRubric {
	return &ProviderRubric{provider: p}
}

var _ RubricDelegate = (*ProviderRubric)(nil)

const rubricSystemPrompt = `You are a strict grading assistant. Compare the submitted ` +
	`answer against the reference answer and reply with JSON only: ` +
	`{"score": <0-100>, "feedback": "<one sentence>", "is_correct": <bool>}`

// ScoreFreeform asks the provider to score the answer against the reference.
// The returned points are normalized to [0,1].
func (r *ProviderRubric) ScoreFreeform(ctx context.Context, q models.Question, submitted string) (float64, string, error) {
	prompt := fmt.Sprintf(
		"Question: %s\n\nReference answer: %s\n\nSubmitted answer: %s",
		q.Text, q.CorrectAnswer, submitted,
	)

	text, err := r.provider.GenerateText(ctx, rubricSystemPrompt, prompt, 0.0)
	if err != nil {
		return 0, "", fmt.Errorf("rubric request failed: %w", err)
	}

	verdict, err := parseVerdict(text)
	if err != nil {
		return 0, "", err
	}

	points := float64(verdict.Score) / 100
	if points < 0 {
		points = 0
	}
	if points > 1 {
		points = 1
	}
	note := verdict.Feedback
	if note == "" {
		note = fmt.Sprintf("scored %d/100", verdict.Score)
	}
	return points, note, nil
}

type rubricVerdict struct {
	Score     int    `json:"score"`
	Feedback  string `json:"feedback"`
	IsCorrect bool   `json:"is_correct"`
}

func parseVerdict(text string) (*rubricVerdict, error) {
	text = strings.TrimSpace(text)

	var v rubricVerdict
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return &v, nil
	}

	if idx := strings.Index(text, "{"); idx >= 0 {
		jsonStr := text[idx:]
		depth := 0
		for i, ch := range jsonStr {
			switch ch {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					if err := json.Unmarshal([]byte(jsonStr[:i+1]), &v); err == nil {
						return &v, nil
					}
				}
			}
		}
	}

	return nil, fmt.Errorf("no valid verdict JSON in rubric reply")
}
