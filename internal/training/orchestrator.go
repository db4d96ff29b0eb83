// Package training implements the per-session progression loop: generate a
// test for the session's current rung, collect and grade answers, and move
// the session up its specialty's ladder or record the failure for study.
package training

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/praxislabs/praxis/internal/agents"
	"github.com/praxislabs/praxis/internal/events"
	"github.com/praxislabs/praxis/internal/grading"
	"github.com/praxislabs/praxis/internal/knowledge"
	"github.com/praxislabs/praxis/internal/metrics"
	"github.com/praxislabs/praxis/internal/question"
	"github.com/praxislabs/praxis/internal/store"
	"github.com/praxislabs/praxis/pkg/messages"
	"github.com/praxislabs/praxis/pkg/models"
)

// ErrSessionNotActive is returned when an advancement is requested for a
// paused or reset session. Those resume only by explicit external action.
var ErrSessionNotActive = errors.New("session is not active")

// DefaultPassingScores maps a ladder position to the score required to pass
// a test at that rung. Rungs beyond the table reuse the last entry.
var DefaultPassingScores = []int{60, 70, 80, 90}

// baselineConfidence is assigned to knowledge entries recorded after a failed
// iteration. The material is known-relevant but unverified.
const baselineConfidence = 60

// ScoreForLevel returns the passing score for the given rung index
func ScoreForLevel(scores []int, rungIndex int) int {
	if len(scores) == 0 {
		scores = DefaultPassingScores
	}
	if rungIndex < 0 {
		rungIndex = 0
	}
	if rungIndex >= len(scores) {
		rungIndex = len(scores) - 1
	}
	return scores[rungIndex]
}

// Outcome classifies the result of one orchestrator invocation. AlreadyComplete
// and the passing outcomes are never errors.
type Outcome string

const (
	// OutcomeAlreadyComplete means the session needed no work
	OutcomeAlreadyComplete Outcome = "already_complete"
	// OutcomeAdvanced means the session passed and moved up one rung
	OutcomeAdvanced Outcome = "advanced"
	// OutcomeCompleted means the session passed at its target level
	OutcomeCompleted Outcome = "completed"
	// OutcomeCappedComplete means the iteration budget ran out and the session
	// was closed at its best-effort level
	OutcomeCappedComplete Outcome = "capped_complete"
	// OutcomeIterationFailed means the test was failed and the session will
	// retry on a later iteration
	OutcomeIterationFailed Outcome = "iteration_failed"
)

// AdvanceResult reports what one invocation did
type AdvanceResult struct {
	Outcome Outcome                 `json:"outcome"`
	Session *models.TrainingSession `json:"session"`
	Attempt *models.TestAttempt     `json:"attempt,omitempty"`
}

// ProgressSummary describes a session's standing for operators and callers
type ProgressSummary struct {
	Session       *models.TrainingSession `json:"session"`
	CurrentTest   *models.Test            `json:"current_test,omitempty"`
	LatestAttempt *models.TestAttempt     `json:"latest_attempt,omitempty"`
	NextSteps     []string                `json:"next_steps"`
}

// Config carries the orchestrator's tunables
type Config struct {
	PassingScores  []int // per rung index, defaults to DefaultPassingScores
	QuestionCounts []int // per rung index, defaults to question.DefaultQuestionCounts
}

// Orchestrator drives training sessions through their iterations. All session
// writes go through the store's version check, so a scheduler tick racing an
// interactive call can never silently clobber state.
type Orchestrator struct {
	store     store.Store
	directory agents.Directory
	questions *question.Generator
	grader    *grading.Engine
	knowledge *knowledge.Store
	answers   AnswerSource
	sink      events.Sink
	metrics   *metrics.Metrics
	config    Config
	now       func() time.Time
}

// NewOrchestrator wires the orchestrator. The answer source may be nil when
// only the interactive SubmitAttempt path is used.
func NewOrchestrator(
	st store.Store,
	directory agents.Directory,
	questions *question.Generator,
	grader *grading.Engine,
	ks *knowledge.Store,
	answers AnswerSource,
	sink events.Sink,
	m *metrics.Metrics,
	config Config,
) *Orchestrator {
	if sink == nil {
		sink = events.NewFanout()
	}
	return &Orchestrator{
		store:     st,
		directory: directory,
		questions: questions,
		grader:    grader,
		knowledge: ks,
		answers:   answers,
		sink:      sink,
		metrics:   m,
		config:    config,
		now:       time.Now,
	}
}

// StartSession validates the request and creates an in_progress session at the
// bottom of the specialty's ladder.
func (o *Orchestrator) StartSession(ctx context.Context, agentID, specialtyID, targetLevel string, maxIterations int) (*models.TrainingSession, error) {
	if _, err := o.directory.GetAgent(ctx, agentID); err != nil {
		return nil, fmt.Errorf("failed to resolve agent %s: %w", agentID, err)
	}
	spec, err := o.store.GetSpecialty(ctx, specialtyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve specialty %s: %w", specialtyID, err)
	}
	if spec.LevelIndex(targetLevel) < 0 {
		return nil, &models.ValidationError{Field: "target_competency_level", Reason: fmt.Sprintf("%q is not on the %s ladder", targetLevel, spec.Name)}
	}
	if maxIterations < 1 {
		maxIterations = 10
	}

	session := &models.TrainingSession{
		ID:                     uuid.New().String(),
		AgentID:                agentID,
		SpecialtyID:            specialtyID,
		TargetCompetencyLevel:  targetLevel,
		CurrentCompetencyLevel: spec.CompetencyLevels[0],
		Status:                 models.SessionStatusInProgress,
		Progress:               0,
		CurrentIteration:       1,
		MaxIterations:          maxIterations,
		CurrentPhase:           models.PhaseStudy,
		StartedAt:              o.now(),
	}
	if err := session.Validate(spec); err != nil {
		return nil, err
	}
	if err := o.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if o.metrics != nil {
		o.metrics.SessionsStarted.Inc()
		o.metrics.SessionsActive.Inc()
	}
	o.publish(ctx, messages.SessionStarted(session.ID, agentID, "orchestrator", map[string]interface{}{
		"specialty_id": specialtyID,
		"target_level": targetLevel,
	}))
	log.Printf("[Training] started session %s for agent %s: %s -> %s", session.ID, agentID, session.CurrentCompetencyLevel, targetLevel)
	return session, nil
}

// Advance runs one unattended iteration for the session: generate a test for
// the current rung, answer it through the configured source, grade, and apply
// the transition. Paused and reset sessions are rejected; terminal sessions
// are a no-op.
func (o *Orchestrator) Advance(ctx context.Context, sessionID string) (*AdvanceResult, error) {
	if o.answers == nil {
		return nil, errors.New("no answer source configured")
	}

	session, spec, err := o.loadActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return &AdvanceResult{Outcome: OutcomeAlreadyComplete, Session: session}, nil
	}

	if done, err := o.alreadyComplete(ctx, session, spec); err != nil {
		return nil, err
	} else if done {
		return &AdvanceResult{Outcome: OutcomeAlreadyComplete, Session: session}, nil
	}

	test, err := o.generateTest(ctx, session, spec)
	if err != nil {
		return nil, err
	}

	answers, err := o.answers.Answers(ctx, test)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain answers for test %s: %w", test.ID, err)
	}
	return o.processAttempt(ctx, session, spec, test, answers)
}

// SubmitAttempt grades an interactively submitted answer set against the
// session's current test and applies the resulting transition.
func (o *Orchestrator) SubmitAttempt(ctx context.Context, sessionID string, answers []models.Answer) (*AdvanceResult, error) {
	session, spec, err := o.loadActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return &AdvanceResult{Outcome: OutcomeAlreadyComplete, Session: session}, nil
	}

	test, err := o.store.LatestTestForSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current test: %w", err)
	}
	return o.processAttempt(ctx, session, spec, test, answers)
}

// GenerateTest produces and persists a test for the session's current rung
// without grading anything, for interactive callers that collect answers
// out of band.
func (o *Orchestrator) GenerateTest(ctx context.Context, sessionID string) (*models.Test, error) {
	session, spec, err := o.loadActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, fmt.Errorf("session %s is %s", sessionID, session.Status)
	}
	return o.generateTest(ctx, session, spec)
}

// Summary returns the session's progress view
func (o *Orchestrator) Summary(ctx context.Context, sessionID string) (*ProgressSummary, error) {
	session, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := &ProgressSummary{Session: session}
	if test, err := o.store.LatestTestForSession(ctx, sessionID); err == nil {
		summary.CurrentTest = test
	}
	if attempt, err := o.store.LatestAttemptForSession(ctx, sessionID); err == nil {
		summary.LatestAttempt = attempt
	}
	summary.NextSteps = nextSteps(session, summary.LatestAttempt)
	return summary, nil
}

// loadActive fetches the session and its specialty, rejecting paused/reset
// sessions. A session whose current level fell off the ladder (the specialty
// was edited underneath it) is failed administratively.
func (o *Orchestrator) loadActive(ctx context.Context, sessionID string) (*models.TrainingSession, *models.Specialty, error) {
	session, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status == models.SessionStatusPaused || session.Status == models.SessionStatusReset {
		return nil, nil, fmt.Errorf("%w: session %s is %s", ErrSessionNotActive, sessionID, session.Status)
	}

	spec, err := o.store.GetSpecialty(ctx, session.SpecialtyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve specialty %s: %w", session.SpecialtyID, err)
	}

	if !session.Status.IsTerminal() && spec.LevelIndex(session.CurrentCompetencyLevel) < 0 {
		log.Printf("[Training] session %s holds level %q no longer on the %s ladder, failing it", sessionID, session.CurrentCompetencyLevel, spec.Name)
		session.Status = models.SessionStatusFailed
		now := o.now()
		session.CompletedAt = &now
		if err := o.writeSession(ctx, session); err != nil {
			return nil, nil, err
		}
		return nil, nil, &models.ValidationError{Field: "current_competency_level", Reason: fmt.Sprintf("%q is not on the %s ladder", session.CurrentCompetencyLevel, spec.Name)}
	}
	return session, spec, nil
}

// alreadyComplete reports whether the latest attempt already passed a test at
// the target level with the target's required score. Guards against the
// scheduler re-running a session whose completing write it raced.
func (o *Orchestrator) alreadyComplete(ctx context.Context, session *models.TrainingSession, spec *models.Specialty) (bool, error) {
	attempt, err := o.store.LatestAttemptForSession(ctx, session.ID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load latest attempt: %w", err)
	}
	if !attempt.Passed {
		return false, nil
	}

	test, err := o.store.GetTest(ctx, attempt.TestID)
	if err != nil {
		return false, fmt.Errorf("failed to load test %s: %w", attempt.TestID, err)
	}
	targetIdx := spec.LevelIndex(session.TargetCompetencyLevel)
	required := ScoreForLevel(o.config.PassingScores, targetIdx)
	return test.Difficulty == session.TargetCompetencyLevel && attempt.Score >= required, nil
}

func (o *Orchestrator) generateTest(ctx context.Context, session *models.TrainingSession, spec *models.Specialty) (*models.Test, error) {
	rung := spec.LevelIndex(session.CurrentCompetencyLevel)
	count := question.CountForLevel(o.config.QuestionCounts, rung)
	questions := o.questions.GenerateQuestions(ctx, spec.Name, session.CurrentCompetencyLevel, count)

	test := &models.Test{
		ID:           uuid.New().String(),
		SessionID:    session.ID,
		TestType:     "competency",
		Questions:    questions,
		PassingScore: ScoreForLevel(o.config.PassingScores, rung),
		Difficulty:   session.CurrentCompetencyLevel,
		CreatedAt:    o.now(),
	}
	if err := o.store.CreateTest(ctx, test); err != nil {
		return nil, fmt.Errorf("failed to persist test: %w", err)
	}

	if o.metrics != nil {
		o.metrics.TestsGenerated.Inc()
	}
	o.publish(ctx, messages.TestGenerated(session.ID, session.AgentID, "orchestrator", map[string]interface{}{
		"test_id":       test.ID,
		"level":         session.CurrentCompetencyLevel,
		"questions":     len(questions),
		"passing_score": test.PassingScore,
	}))
	return test, nil
}

// processAttempt grades the answers and applies the session transition as a
// single version-checked write.
func (o *Orchestrator) processAttempt(ctx context.Context, session *models.TrainingSession, spec *models.Specialty, test *models.Test, answers []models.Answer) (*AdvanceResult, error) {
	result, err := o.grader.Grade(ctx, test, answers)
	if err != nil {
		return nil, fmt.Errorf("failed to grade attempt: %w", err)
	}

	attempt := &models.TestAttempt{
		ID:            uuid.New().String(),
		TestID:        test.ID,
		SessionID:     session.ID,
		AttemptNumber: session.CurrentIteration,
		Answers:       answers,
		Score:         result.Score,
		Passed:        result.Passed,
		Feedback:      result.Feedback,
		CompletedAt:   o.now(),
	}
	if err := o.store.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to persist attempt: %w", err)
	}
	o.publish(ctx, messages.TestCompleted(session.ID, session.AgentID, "orchestrator", map[string]interface{}{
		"test_id": test.ID,
		"score":   result.Score,
		"passed":  result.Passed,
	}))

	if result.Passed {
		return o.applyPass(ctx, session, spec, attempt)
	}
	return o.applyFail(ctx, session, spec, attempt)
}

func (o *Orchestrator) applyPass(ctx context.Context, session *models.TrainingSession, spec *models.Specialty, attempt *models.TestAttempt) (*AdvanceResult, error) {
	if session.CurrentCompetencyLevel == session.TargetCompetencyLevel {
		now := o.now()
		session.Status = models.SessionStatusCompleted
		session.Progress = 100
		session.CompletedAt = &now
		if err := o.writeSession(ctx, session); err != nil {
			return nil, err
		}

		if o.metrics != nil {
			o.metrics.SessionsCompleted.WithLabelValues("target_reached").Inc()
			o.metrics.SessionsActive.Dec()
			o.metrics.IterationsTotal.WithLabelValues("passed").Inc()
		}
		o.publish(ctx, messages.CompetencyAchieved(session.ID, session.AgentID, "orchestrator", map[string]interface{}{
			"specialty_id": session.SpecialtyID,
			"level":        session.CurrentCompetencyLevel,
			"score":        attempt.Score,
		}))
		o.publish(ctx, messages.SessionCompleted(session.ID, session.AgentID, "orchestrator", map[string]interface{}{
			"reason": "target_reached",
		}))
		log.Printf("[Training] session %s completed: agent %s reached %s", session.ID, session.AgentID, session.CurrentCompetencyLevel)
		return &AdvanceResult{Outcome: OutcomeCompleted, Session: session, Attempt: attempt}, nil
	}

	next := spec.NextLevel(session.CurrentCompetencyLevel)
	session.CurrentCompetencyLevel = next
	session.CurrentIteration++
	session.Progress = progressFor(spec, next)
	if err := o.writeSession(ctx, session); err != nil {
		return nil, err
	}

	if o.metrics != nil {
		o.metrics.IterationsTotal.WithLabelValues("passed").Inc()
	}
	log.Printf("[Training] session %s advanced to %s (progress %d%%)", session.ID, next, session.Progress)
	return &AdvanceResult{Outcome: OutcomeAdvanced, Session: session, Attempt: attempt}, nil
}

func (o *Orchestrator) applyFail(ctx context.Context, session *models.TrainingSession, spec *models.Specialty, attempt *models.TestAttempt) (*AdvanceResult, error) {
	if o.knowledge != nil {
		entry := &models.KnowledgeEntry{
			Content: fmt.Sprintf(
				"Failed %s test for %s with score %d. Review: %s",
				session.CurrentCompetencyLevel, spec.Name, attempt.Score, firstLines(attempt.Feedback, 5),
			),
			Source:     session.ID,
			Confidence: baselineConfidence,
			Tags:       []string{spec.Name, session.CurrentCompetencyLevel},
		}
		if err := o.knowledge.StoreKnowledge(ctx, session.AgentID, entry); err != nil {
			log.Printf("[Training] failed to record study material for session %s: %v", session.ID, err)
		}
	}

	// The iteration counter never exceeds the budget: the final failure closes
	// the session instead of incrementing past the cap.
	if session.CurrentIteration >= session.MaxIterations {
		now := o.now()
		session.Status = models.SessionStatusCompleted
		session.CompletedAt = &now
		if err := o.writeSession(ctx, session); err != nil {
			return nil, err
		}

		if o.metrics != nil {
			o.metrics.SessionsCompleted.WithLabelValues("capped").Inc()
			o.metrics.SessionsActive.Dec()
			o.metrics.IterationsTotal.WithLabelValues("failed").Inc()
		}
		o.publish(ctx, messages.SessionCompleted(session.ID, session.AgentID, "orchestrator", map[string]interface{}{
			"reason":      "iteration_cap",
			"final_level": session.CurrentCompetencyLevel,
		}))
		log.Printf("[Training] session %s hit its iteration cap at %s", session.ID, session.CurrentCompetencyLevel)
		return &AdvanceResult{Outcome: OutcomeCappedComplete, Session: session, Attempt: attempt}, nil
	}

	session.CurrentIteration++
	if err := o.writeSession(ctx, session); err != nil {
		return nil, err
	}
	if o.metrics != nil {
		o.metrics.IterationsTotal.WithLabelValues("failed").Inc()
	}
	log.Printf("[Training] session %s failed iteration %d with score %d, retrying", session.ID, session.CurrentIteration-1, attempt.Score)
	return &AdvanceResult{Outcome: OutcomeIterationFailed, Session: session, Attempt: attempt}, nil
}

func (o *Orchestrator) writeSession(ctx context.Context, session *models.TrainingSession) error {
	err := o.store.UpdateSession(ctx, session)
	if errors.Is(err, store.ErrVersionConflict) {
		if o.metrics != nil {
			o.metrics.VersionConflicts.Inc()
		}
		return fmt.Errorf("session %s: %w", session.ID, err)
	}
	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", session.ID, err)
	}
	return nil
}

func (o *Orchestrator) publish(ctx context.Context, event *messages.EventMessage) {
	if o.metrics != nil {
		o.metrics.EventsPublished.WithLabelValues(event.Type).Inc()
	}
	_ = o.sink.Publish(ctx, event)
}

// progressFor maps a ladder position to percent complete. A single-rung
// ladder only ever completes through the target-reached path.
func progressFor(spec *models.Specialty, level string) int {
	rungs := len(spec.CompetencyLevels)
	if rungs < 2 {
		return 100
	}
	idx := spec.LevelIndex(level)
	if idx < 0 {
		idx = 0
	}
	return int(math.Round(float64(idx) / float64(rungs-1) * 100))
}

func nextSteps(session *models.TrainingSession, latest *models.TestAttempt) []string {
	switch session.Status {
	case models.SessionStatusCompleted:
		return []string{"training complete, no further action needed"}
	case models.SessionStatusFailed:
		return []string{"session failed, start a new session to retrain"}
	case models.SessionStatusPaused:
		return []string{"session paused, resume to continue training"}
	case models.SessionStatusReset:
		return []string{"session reset, restart to begin training again"}
	}

	steps := []string{fmt.Sprintf("continue %s phase at level %s", session.CurrentPhase, session.CurrentCompetencyLevel)}
	if latest != nil && !latest.Passed {
		steps = append(steps, fmt.Sprintf("review material from attempt %d (scored %d)", latest.AttemptNumber, latest.Score))
	}
	steps = append(steps, fmt.Sprintf("iteration %d of %d toward %s", session.CurrentIteration, session.MaxIterations, session.TargetCompetencyLevel))
	return steps
}

func firstLines(lines []string, n int) string {
	if len(lines) > n {
		lines = lines[:n]
	}
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "; "
		}
		out += l
	}
	return out
}
