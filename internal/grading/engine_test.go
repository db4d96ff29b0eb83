package grading

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/praxislabs/praxis/internal/provider"
	"github.com/praxislabs/praxis/pkg/models"
)

func multipleChoiceTest(passingScore int) *models.Test {
	return &models.Test{
		ID:           "test-1",
		SessionID:    "sess-1",
		TestType:     "competency",
		PassingScore: passingScore,
		Questions: []models.Question{
			{ID: "q1", Type: models.QuestionTypeMultipleChoice, Text: "1+1?", Options: []string{"2", "3"}, CorrectAnswer: "2"},
			{ID: "q2", Type: models.QuestionTypeMultipleChoice, Text: "2+2?", Options: []string{"4", "5"}, CorrectAnswer: "4"},
		},
	}
}

func TestGradeAllCorrect(t *testing.T) {
	e := NewEngine(nil, nil)
	result, err := e.Grade(context.Background(), multipleChoiceTest(70), []models.Answer{
		{QuestionID: "q1", Answer: "2"},
		{QuestionID: "q2", Answer: "4"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 100 || !result.Passed {
		t.Errorf("got score %d passed %t", result.Score, result.Passed)
	}
}

func TestGradeTrimsAndFoldsCase(t *testing.T) {
	e := NewEngine(nil, nil)
	test := &models.Test{
		ID: "test-1", PassingScore: 60,
		Questions: []models.Question{
			{ID: "q1", Type: models.QuestionTypeMultipleChoice, Options: []string{"Paris", "Rome"}, CorrectAnswer: "Paris"},
		},
	}
	result, err := e.Grade(context.Background(), test, []models.Answer{
		{QuestionID: "q1", Answer: "  pArIs \n"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 100 {
		t.Errorf("got score %d", result.Score)
	}
}

func TestGradeUnansweredEarnsNothing(t *testing.T) {
	e := NewEngine(nil, nil)
	result, err := e.Grade(context.Background(), multipleChoiceTest(60), []models.Answer{
		{QuestionID: "q1", Answer: "2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 50 || result.Passed {
		t.Errorf("got score %d passed %t", result.Score, result.Passed)
	}
}

type fixedRubric struct {
	points float64
	err    error
}

func (r fixedRubric) ScoreFreeform(ctx context.Context, q models.Question, submitted string) (float64, string, error) {
	return r.points, "rubric note", r.err
}

func TestGradeScenarioUsesDelegate(t *testing.T) {
	e := NewEngine(fixedRubric{points: 1.0}, nil)
	test := &models.Test{
		ID: "test-1", PassingScore: 80,
		Questions: []models.Question{
			{ID: "q1", Type: models.QuestionTypeScenario, Text: "Explain.", CorrectAnswer: "reference"},
		},
	}
	result, err := e.Grade(context.Background(), test, []models.Answer{
		{QuestionID: "q1", Answer: "my explanation"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 100 {
		t.Errorf("got score %d", result.Score)
	}
}

func TestGradeDelegateFailureAwardsPartialCredit(t *testing.T) {
	e := NewEngine(fixedRubric{err: errors.New("delegate down")}, nil)
	test := &models.Test{
		ID: "test-1", PassingScore: 80,
		Questions: []models.Question{
			{ID: "q1", Type: models.QuestionTypeScenario, Text: "Explain.", CorrectAnswer: "reference"},
		},
	}
	result, err := e.Grade(context.Background(), test, []models.Answer{
		{QuestionID: "q1", Answer: "my explanation"},
	})
	if err != nil {
		t.Fatalf("delegate failure must not fail grading: %v", err)
	}
	if result.Score != 50 {
		t.Errorf("got score %d, want 50%% partial credit", result.Score)
	}
	found := false
	for _, f := range result.Feedback {
		if strings.Contains(f, ManualReviewNote) {
			found = true
		}
	}
	if !found {
		t.Error("expected manual review flag in feedback")
	}
}

func TestGradeEmptyTestIsError(t *testing.T) {
	e := NewEngine(nil, nil)
	_, err := e.Grade(context.Background(), &models.Test{ID: "empty"}, nil)
	if err == nil {
		t.Error("expected error for test with no questions")
	}
}

func TestParseVerdictEmbeddedJSON(t *testing.T) {
	v, err := parseVerdict(`The grade follows: {"score": 85, "feedback": "solid", "is_correct": true} done.`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Score != 85 || !v.IsCorrect {
		t.Errorf("got %+v", v)
	}
}

func TestProviderRubricScoresThroughProvider(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.QueueReply(`{"score": 70, "feedback": "decent", "is_correct": true}`)
	rubric := NewProviderRubric(&provider.Registered{
		Config:   &provider.Config{ID: "mock", Model: "mock-model"},
		Protocol: mock,
	})

	points, note, err := rubric.ScoreFreeform(context.Background(),
		models.Question{ID: "q1", Text: "Explain.", CorrectAnswer: "ref"}, "answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points != 0.7 {
		t.Errorf("got points %v", points)
	}
	if note != "decent" {
		t.Errorf("got note %q", note)
	}
}
