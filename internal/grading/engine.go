// Package grading scores submitted test attempts. Multiple-choice questions
// are graded locally; free-response questions are delegated to a rubric
// scorer, degrading to partial credit when the delegate is unavailable.
package grading

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/praxislabs/praxis/internal/metrics"
	"github.com/praxislabs/praxis/pkg/models"
)

// ManualReviewNote is appended to feedback whenever a free-response answer
// could not be scored by the delegate.
const ManualReviewNote = "manual review recommended"

// Result is the outcome of grading one attempt
type Result struct {
	Score    int      // 0..100
	Passed   bool     // score >= the test's passing score
	Feedback []string // per-question feedback, in question order
}

// RubricDelegate scores a free-response answer against the reference answer.
// Points are in [0,1].
type RubricDelegate interface {
	ScoreFreeform(ctx context.Context, question models.Question, submitted string) (points float64, feedback string, err error)
}

// Engine grades test attempts
type Engine struct {
	rubric  RubricDelegate
	metrics *metrics.Metrics
}

// NewEngine creates a grading engine. The rubric delegate may be nil, in
// which case every free-response answer takes the partial-credit path.
func NewEngine(rubric RubricDelegate, m *metrics.Metrics) *Engine {
	return &Engine{rubric: rubric, metrics: m}
}

// Grade scores the submitted answers against the test. Unanswered questions
// earn zero points. A failing rubric delegate never fails the grading pass:
// the affected question earns 50% credit and is flagged for manual review.
func (e *Engine) Grade(ctx context.Context, test *models.Test, answers []models.Answer) (*Result, error) {
	if len(test.Questions) == 0 {
		return nil, fmt.Errorf("test %s has no questions", test.ID)
	}

	byQuestion := make(map[string]string, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Answer
	}

	var earned float64
	total := float64(len(test.Questions))
	feedback := make([]string, 0, len(test.Questions))

	for _, q := range test.Questions {
		submitted, answered := byQuestion[q.ID]
		if !answered || strings.TrimSpace(submitted) == "" {
			feedback = append(feedback, fmt.Sprintf("%s: no answer submitted", q.ID))
			continue
		}

		switch q.Type {
		case models.QuestionTypeMultipleChoice:
			if answersMatch(submitted, q.CorrectAnswer) {
				earned++
				feedback = append(feedback, fmt.Sprintf("%s: correct", q.ID))
			} else {
				feedback = append(feedback, fmt.Sprintf("%s: incorrect, expected %q. %s", q.ID, q.CorrectAnswer, q.Explanation))
			}
		default:
			points, note := e.scoreFreeform(ctx, q, submitted)
			earned += points
			feedback = append(feedback, fmt.Sprintf("%s: %s", q.ID, note))
		}
	}

	score := int(math.Round(earned / total * 100))
	result := &Result{
		Score:    score,
		Passed:   score >= test.PassingScore,
		Feedback: feedback,
	}
	if e.metrics != nil {
		e.metrics.AttemptsGraded.WithLabelValues(fmt.Sprintf("%t", result.Passed)).Inc()
	}
	return result, nil
}

// answersMatch compares answers after trimming whitespace and folding case
func answersMatch(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}

func (e *Engine) scoreFreeform(ctx context.Context, q models.Question, submitted string) (float64, string) {
	if e.rubric != nil {
		points, note, err := e.rubric.ScoreFreeform(ctx, q, submitted)
		if err == nil {
			if points < 0 {
				points = 0
			}
			if points > 1 {
				points = 1
			}
			return points, note
		}
		log.Printf("[Grading] rubric delegate failed for question %s: %v", q.ID, err)
	}
	if e.metrics != nil {
		e.metrics.GradingFallbacks.Inc()
	}
	return 0.5, ManualReviewNote
}
