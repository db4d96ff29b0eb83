package question

import (
	"context"
	"errors"
	"testing"

	"github.com/praxislabs/praxis/internal/provider"
	"github.com/praxislabs/praxis/pkg/models"
)

func newTestGenerator(mock *provider.MockProvider) *Generator {
	reg := &provider.Registered{
		Config:   &provider.Config{ID: "mock", Type: "mock", Model: "mock-model"},
		Protocol: mock,
	}
	return NewGenerator(reg, nil)
}

const sampleReply = `[
	{"text":"What is a feedback loop?","type":"multiple_choice","options":["A cycle","A line","A tree","A point"],"correct_answer":"A cycle","explanation":"Loops feed back.","skills_tested":["systems"]},
	{"text":"Describe a reinforcing loop you have seen.","type":"scenario","correct_answer":"Any reinforcing loop with growth behavior."}
]`

func TestGenerateQuestionsParsesProviderReply(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.QueueReply(sampleReply)
	g := newTestGenerator(mock)

	questions := g.GenerateQuestions(context.Background(), "systems thinking", "Beginner", 2)
	if len(questions) != 2 {
		t.Fatalf("got %d questions", len(questions))
	}
	if questions[0].Type != models.QuestionTypeMultipleChoice {
		t.Errorf("got type %q", questions[0].Type)
	}
	if questions[1].Type != models.QuestionTypeScenario {
		t.Errorf("got type %q", questions[1].Type)
	}
	if questions[0].ID == "" {
		t.Error("expected generated question ID")
	}
	if questions[0].Difficulty != "Beginner" {
		t.Errorf("got difficulty %q", questions[0].Difficulty)
	}
}

func TestGenerateQuestionsMarkdownFence(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.QueueReply("Here you go:\n```json\n" + sampleReply + "\n```\n")
	g := newTestGenerator(mock)

	questions := g.GenerateQuestions(context.Background(), "systems thinking", "Advanced", 2)
	if len(questions) != 2 {
		t.Fatalf("got %d questions", len(questions))
	}
}

func TestGenerateQuestionsFallsBackOnProviderError(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Err = errors.New("provider down")
	g := newTestGenerator(mock)

	questions := g.GenerateQuestions(context.Background(), "systems thinking", "Beginner", 6)
	if len(questions) != 6 {
		t.Fatalf("got %d placeholder questions", len(questions))
	}
	if questions[0].ID != "placeholder-systems thinking-Beginner-0" {
		t.Errorf("placeholder IDs must be deterministic, got %q", questions[0].ID)
	}
}

func TestGenerateQuestionsFallsBackOnGarbage(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.QueueReply("I cannot help with that.")
	g := newTestGenerator(mock)

	questions := g.GenerateQuestions(context.Background(), "systems thinking", "Expert", 4)
	if len(questions) != 4 {
		t.Fatalf("got %d questions", len(questions))
	}
	for _, q := range questions {
		if q.CorrectAnswer == "" {
			t.Error("placeholder question missing correct answer")
		}
	}
}

func TestParseQuestionsRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"empty array":   `[]`,
		"empty text":    `[{"text":"","type":"multiple_choice","options":["a","b"],"correct_answer":"a"}]`,
		"unknown type":  `[{"text":"x","type":"oral_exam","correct_answer":"a"}]`,
		"no options":    `[{"text":"x","type":"multiple_choice","options":["a"],"correct_answer":"a"}]`,
		"no answer":     `[{"text":"x","type":"scenario","correct_answer":""}]`,
		"not json":      `the answer is 42`,
	}
	for name, input := range cases {
		if _, err := parseQuestions(input); err == nil {
			t.Errorf("%s: expected parse error", name)
		}
	}
}

func TestCountForLevel(t *testing.T) {
	counts := []int{6, 8, 10, 12}
	if got := CountForLevel(counts, 0); got != 6 {
		t.Errorf("rung 0: got %d", got)
	}
	if got := CountForLevel(counts, 3); got != 12 {
		t.Errorf("rung 3: got %d", got)
	}
	// Ladders longer than the table reuse the last entry.
	if got := CountForLevel(counts, 9); got != 12 {
		t.Errorf("rung 9: got %d", got)
	}
	if got := CountForLevel(nil, 1); got != 8 {
		t.Errorf("default table rung 1: got %d", got)
	}
}
