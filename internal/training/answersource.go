package training

import (
	"context"
	"math/rand"
	"sync"

	"github.com/praxislabs/praxis/pkg/models"
)

// AnswerSource supplies answers for a generated test. In unattended mode the
// scheduler wires an automated source; interactive callers submit answers
// through SubmitAttempt instead.
type AnswerSource interface {
	Answers(ctx context.Context, test *models.Test) ([]models.Answer, error)
}

// AutoAnswerSource answers tests automatically with a configurable accuracy.
// It stands in for the trainee during unattended progression: accuracy 1.0
// drives sessions straight up the ladder, lower values exercise the failure
// and knowledge-capture paths.
type AutoAnswerSource struct {
	accuracy float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAutoAnswerSource creates an automated answer source. Accuracy is clamped
// to [0,1]; the seed makes behavior reproducible.
func NewAutoAnswerSource(accuracy float64, seed int64) *AutoAnswerSource {
	if accuracy < 0 {
		accuracy = 0
	}
	if accuracy > 1 {
		accuracy = 1
	}
	return &AutoAnswerSource{
		accuracy: accuracy,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

var _ AnswerSource = (*AutoAnswerSource)(nil)

// Answers produces one answer per question, correct with probability equal to
// the configured accuracy.
func (a *AutoAnswerSource) Answers(ctx context.Context, test *models.Test) ([]models.Answer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	answers := make([]models.Answer, 0, len(test.Questions))
	for _, q := range test.Questions {
		answers = append(answers, models.Answer{
			QuestionID: q.ID,
			Answer:     a.answerFor(q),
		})
	}
	return answers, nil
}

func (a *AutoAnswerSource) answerFor(q models.Question) string {
	if a.rng.Float64() < a.accuracy {
		return q.CorrectAnswer
	}
	if q.Type == models.QuestionTypeMultipleChoice {
		for _, opt := range q.Options {
			if opt != q.CorrectAnswer {
				return opt
			}
		}
	}
	return "I am not sure about this one."
}
