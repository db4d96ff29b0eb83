// Package question turns an AI provider into a competency question source.
// Upstream failures never propagate: a deterministic placeholder set keeps
// the training state machine moving when the provider is down or returns
// garbage.
package question

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/praxislabs/praxis/internal/metrics"
	"github.com/praxislabs/praxis/internal/provider"
	"github.com/praxislabs/praxis/pkg/models"
)

// DefaultQuestionCounts maps a ladder position to how many questions a test
// at that rung should contain. Rungs beyond the table reuse the last entry.
var DefaultQuestionCounts = []int{6, 8, 10, 12}

// CountForLevel returns the question count for the given rung index
func CountForLevel(counts []int, rungIndex int) int {
	if len(counts) == 0 {
		counts = DefaultQuestionCounts
	}
	if rungIndex < 0 {
		rungIndex = 0
	}
	if rungIndex >= len(counts) {
		rungIndex = len(counts) - 1
	}
	return counts[rungIndex]
}

// Generator produces test questions through an AI provider
type Generator struct {
	provider *provider.Registered
	metrics  *metrics.Metrics
}

// NewGenerator creates a question generator backed by the given provider
func NewGenerator(p *provider.Registered, m *metrics.Metrics) *Generator {
	return &Generator{provider: p, metrics: m}
}

const questionSystemPrompt = `You are a competency assessment designer. ` +
	`Reply with a JSON array only, no prose. Each element must have: ` +
	`"text", "type" ("multiple_choice" or "scenario"), "options" (multiple choice only, 4 strings), ` +
	`"correct_answer", "explanation", "skills_tested" (array of strings).`

// GenerateQuestions asks the provider for count questions on topic at the
// given competency level. On provider failure or malformed output it falls
// back to Placeholder questions and logs the degradation.
func (g *Generator) GenerateQuestions(ctx context.Context, topic, level string, count int) []models.Question {
	prompt := fmt.Sprintf(
		"Generate %d assessment questions for the topic %q at competency level %q. "+
			"Mix multiple_choice and scenario questions, weighted toward multiple_choice.",
		count, topic, level,
	)

	text, err := g.provider.GenerateText(ctx, questionSystemPrompt, prompt, 0.7)
	if err != nil {
		g.countFallback()
		log.Printf("[QuestionGen] provider failed for %s/%s, using placeholder set: %v", topic, level, err)
		return Placeholder(topic, level, count)
	}

	questions, err := parseQuestions(text)
	if err != nil {
		g.countFallback()
		log.Printf("[QuestionGen] malformed provider output for %s/%s, using placeholder set: %v", topic, level, err)
		return Placeholder(topic, level, count)
	}

	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = uuid.New().String()
		}
		if questions[i].Difficulty == "" {
			questions[i].Difficulty = level
		}
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return questions
}

func (g *Generator) countFallback() {
	if g.metrics != nil {
		g.metrics.QuestionFallbacks.Inc()
	}
}

// parseQuestions extracts a question array from the provider reply, tolerating
// markdown fences and surrounding prose.
func parseQuestions(text string) ([]models.Question, error) {
	text = strings.TrimSpace(text)

	var questions []models.Question
	if err := json.Unmarshal([]byte(text), &questions); err == nil {
		return validQuestions(questions)
	}

	// Try extracting JSON from markdown code block
	if idx := strings.Index(text, "```json"); idx >= 0 {
		start := idx + 7
		end := strings.Index(text[start:], "```")
		if end > 0 {
			jsonStr := strings.TrimSpace(text[start : start+end])
			if err := json.Unmarshal([]byte(jsonStr), &questions); err == nil {
				return validQuestions(questions)
			}
		}
	}

	// Try extracting any JSON array
	if idx := strings.Index(text, "["); idx >= 0 {
		jsonStr := text[idx:]
		depth := 0
		for i, ch := range jsonStr {
			switch ch {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					candidate := jsonStr[:i+1]
					if err := json.Unmarshal([]byte(candidate), &questions); err == nil {
						return validQuestions(questions)
					}
				}
			}
		}
	}

	return nil, fmt.Errorf("no valid question JSON found")
}

func validQuestions(questions []models.Question) ([]models.Question, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("provider returned zero questions")
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("question %d has empty text", i)
		}
		if q.Type != models.QuestionTypeMultipleChoice && q.Type != models.QuestionTypeScenario {
			return nil, fmt.Errorf("question %d has unknown type %q", i, q.Type)
		}
		if q.Type == models.QuestionTypeMultipleChoice && len(q.Options) < 2 {
			return nil, fmt.Errorf("question %d has too few options", i)
		}
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return nil, fmt.Errorf("question %d has empty correct answer", i)
		}
	}
	return questions, nil
}
