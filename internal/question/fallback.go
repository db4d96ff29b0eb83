package question

import (
	"fmt"

	"github.com/praxislabs/praxis/pkg/models"
)

// Placeholder returns a deterministic question set used when the provider is
// unavailable. Question IDs are stable for a given topic/level/count so
// repeated fallbacks produce identical tests.
func Placeholder(topic, level string, count int) []models.Question {
	if count <= 0 {
		count = len(DefaultQuestionCounts)
	}
	questions := make([]models.Question, 0, count)
	for i := 0; i < count; i++ {
		q := models.Question{
			ID:            fmt.Sprintf("placeholder-%s-%s-%d", topic, level, i),
			Type:          models.QuestionTypeMultipleChoice,
			Text:          fmt.Sprintf("Which statement about %s is accurate? (%s practice item %d)", topic, level, i+1),
			Options:       []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectAnswer: "Option A",
			Explanation:   fmt.Sprintf("Placeholder item generated while the question provider was unavailable for %s.", topic),
			Difficulty:    level,
			SkillsTested:  []string{topic},
		}
		// Every third item is a scenario question so both grading paths stay
		// exercised during degraded operation.
		if i%3 == 2 {
			q.Type = models.QuestionTypeScenario
			q.Options = nil
			q.Text = fmt.Sprintf("Describe how you would apply %s at the %s level. (practice item %d)", topic, level, i+1)
			q.CorrectAnswer = fmt.Sprintf("A grounded explanation of applying %s fundamentals.", topic)
		}
		questions = append(questions, q)
	}
	return questions
}
