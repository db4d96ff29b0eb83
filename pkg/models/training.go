package models

import "time"

// Specialty represents a named competency domain with an ordered ladder of
// mastery levels. The ladder order defines the progression path for sessions.
type Specialty struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Domain            string    `json:"domain"`
	Description       string    `json:"description,omitempty"`
	RequiredKnowledge []string  `json:"required_knowledge,omitempty"`
	CompetencyLevels  []string  `json:"competency_levels"` // ordered, never empty
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LevelIndex returns the position of a competency level on the specialty's
// ladder, or -1 if the level is not part of the ladder.
func (s *Specialty) LevelIndex(level string) int {
	for i, l := range s.CompetencyLevels {
		if l == level {
			return i
		}
	}
	return -1
}

// NextLevel returns the rung after the given level, or "" if the level is the
// top of the ladder or unknown.
func (s *Specialty) NextLevel(level string) string {
	idx := s.LevelIndex(level)
	if idx < 0 || idx+1 >= len(s.CompetencyLevels) {
		return ""
	}
	return s.CompetencyLevels[idx+1]
}

// SessionStatus represents the lifecycle state of a training session
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
	SessionStatusPaused     SessionStatus = "paused"
	SessionStatusReset      SessionStatus = "reset"
)

// IsTerminal reports whether the status admits no further automatic transitions.
// Paused and reset sessions can be resumed by explicit external action only.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed
}

// TrainingPhase represents one of the four scheduler sub-steps per iteration
type TrainingPhase string

const (
	PhaseStudy    TrainingPhase = "study"
	PhasePractice TrainingPhase = "practice"
	PhaseTest     TrainingPhase = "test"
	PhaseReview   TrainingPhase = "review"
)

// NextPhase returns the phase following p in the study→practice→test→review
// cycle. Review wraps back to study, beginning the next iteration.
func NextPhase(p TrainingPhase) TrainingPhase {
	switch p {
	case PhaseStudy:
		return PhasePractice
	case PhasePractice:
		return PhaseTest
	case PhaseTest:
		return PhaseReview
	default:
		return PhaseStudy
	}
}

// TrainingSession is the stateful record of one agent's progression through
// one specialty toward a target competency level. It is mutated only by the
// orchestrator; every transition is a single version-checked write.
type TrainingSession struct {
	ID                     string        `json:"id"`
	AgentID                string        `json:"agent_id"`
	SpecialtyID            string        `json:"specialty_id"`
	TargetCompetencyLevel  string        `json:"target_competency_level"`
	CurrentCompetencyLevel string        `json:"current_competency_level"`
	Status                 SessionStatus `json:"status"`
	Progress               int           `json:"progress"` // 0..100
	CurrentIteration       int           `json:"current_iteration"`
	MaxIterations          int           `json:"max_iterations"`
	CurrentPhase           TrainingPhase `json:"current_phase"`
	LastProcessedPhase     TrainingPhase `json:"last_processed_phase,omitempty"`
	LastProcessedTime      time.Time     `json:"last_processed_time,omitempty"`
	StartedAt              time.Time     `json:"started_at"`
	CompletedAt            *time.Time    `json:"completed_at,omitempty"`
	// Version implements optimistic concurrency: updates must present the
	// version they read, and the store rejects stale writes.
	Version int64 `json:"version"`
}

// QuestionType identifies how a question is answered and graded
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeScenario       QuestionType = "scenario"
)

// Question represents a single generated test question
type Question struct {
	ID            string       `json:"id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"` // multiple choice only
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty"`
	Difficulty    string       `json:"difficulty,omitempty"`
	SkillsTested  []string     `json:"skills_tested,omitempty"`
}

// Test represents a generated competency test for one session iteration
type Test struct {
	ID           string     `json:"id"`
	SessionID    string     `json:"session_id"`
	TestType     string     `json:"test_type"` // "competency", "placement"
	Questions    []Question `json:"questions"`
	PassingScore int        `json:"passing_score"` // derived from the session's current level
	Difficulty   string     `json:"difficulty,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Answer pairs a question with a submitted response
type Answer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// TestAttempt records one grading pass over a test. Attempts are immutable
// once created.
type TestAttempt struct {
	ID            string    `json:"id"`
	TestID        string    `json:"test_id"`
	SessionID     string    `json:"session_id"`
	AttemptNumber int       `json:"attempt_number"`
	Answers       []Answer  `json:"answers"`
	Score         int       `json:"score"` // 0..100
	Passed        bool      `json:"passed"`
	Feedback      []string  `json:"feedback,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// KnowledgeEntry is a study artifact stored for an agent, typically recorded
// after a failed test iteration so the material can be retrieved later.
type KnowledgeEntry struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	Content    string    `json:"content"`
	Source     string    `json:"source,omitempty"` // e.g. originating session ID
	Confidence int       `json:"confidence"`       // 0..100
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Agent represents an agent known to the platform's directory
type Agent struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role,omitempty"`
	Status     string    `json:"status"` // "idle", "working", "training"
	StartedAt  time.Time `json:"started_at"`
	LastActive time.Time `json:"last_active"`
}

// ProgressSummary is the caller-facing view of where a session stands
type ProgressSummary struct {
	Session       *TrainingSession `json:"session"`
	CurrentTest   *Test            `json:"current_test,omitempty"`
	LatestAttempt *TestAttempt     `json:"latest_attempt,omitempty"`
	NextSteps     []string         `json:"next_steps"`
}
