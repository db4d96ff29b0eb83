package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/praxislabs/praxis/internal/store"
	"github.com/praxislabs/praxis/pkg/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func testSpecialty(id string) *models.Specialty {
	return &models.Specialty{
		ID:               id,
		Name:             "Systems Thinking",
		Domain:           "engineering",
		CompetencyLevels: []string{"Beginner", "Intermediate", "Advanced", "Expert"},
	}
}

func testSession(id, specialtyID string) *models.TrainingSession {
	return &models.TrainingSession{
		ID:                     id,
		AgentID:                "agent-1",
		SpecialtyID:            specialtyID,
		TargetCompetencyLevel:  "Advanced",
		CurrentCompetencyLevel: "Beginner",
		Status:                 models.SessionStatusInProgress,
		CurrentIteration:       1,
		MaxIterations:          10,
		CurrentPhase:           models.PhaseStudy,
		StartedAt:              time.Now(),
	}
}

func TestSpecialtyRoundTrip(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	s := testSpecialty("spec-1")
	s.RequiredKnowledge = []string{"feedback loops"}
	if err := d.CreateSpecialty(ctx, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := d.GetSpecialty(ctx, "spec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Systems Thinking" {
		t.Errorf("got name %q", got.Name)
	}
	if len(got.CompetencyLevels) != 4 || got.CompetencyLevels[3] != "Expert" {
		t.Errorf("got ladder %v", got.CompetencyLevels)
	}
	if len(got.RequiredKnowledge) != 1 {
		t.Errorf("got required knowledge %v", got.RequiredKnowledge)
	}

	got.Domain = "architecture"
	if err := d.UpdateSpecialty(ctx, got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = d.GetSpecialty(ctx, "spec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Domain != "architecture" {
		t.Errorf("got domain %q", got.Domain)
	}
}

func TestGetSpecialtyNotFound(t *testing.T) {
	d := newTestDB(t)
	_, err := d.GetSpecialty(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionVersionConflict(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	s := testSession("sess-1", "spec-1")
	if err := d.CreateSession(ctx, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := d.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := d.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a.Progress = 33
	if err := d.UpdateSession(ctx, a); err != nil {
		t.Fatalf("first writer should win: %v", err)
	}
	if a.Version != 2 {
		t.Errorf("got version %d after update", a.Version)
	}

	b.Progress = 66
	err = d.UpdateSession(ctx, b)
	if !errors.Is(err, store.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict for stale writer, got %v", err)
	}

	got, err := d.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Progress != 33 {
		t.Errorf("stale write clobbered state: progress %d", got.Progress)
	}
}

func TestUpdateMissingSession(t *testing.T) {
	d := newTestDB(t)
	s := testSession("ghost", "spec-1")
	s.Version = 1
	err := d.UpdateSession(context.Background(), s)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListSessionsByStatus(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	active := testSession("sess-a", "spec-1")
	done := testSession("sess-b", "spec-1")
	done.Status = models.SessionStatusCompleted
	if err := d.CreateSession(ctx, active); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.CreateSession(ctx, done); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := d.ListSessionsByStatus(ctx, models.SessionStatusInProgress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "sess-a" {
		t.Errorf("got %d sessions", len(got))
	}
}

func TestAttemptOrdering(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	test := &models.Test{
		ID:        "test-1",
		SessionID: "sess-1",
		TestType:  "competency",
		Questions: []models.Question{{ID: "q1", Text: "?", Type: models.QuestionTypeMultipleChoice, CorrectAnswer: "a"}},
	}
	if err := d.CreateTest(ctx, test); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i <= 3; i++ {
		a := &models.TestAttempt{
			ID:            "attempt-" + string(rune('0'+i)),
			TestID:        "test-1",
			SessionID:     "sess-1",
			AttemptNumber: i,
			Answers:       []models.Answer{{QuestionID: "q1", Answer: "a"}},
			Score:         i * 30,
		}
		if err := d.CreateAttempt(ctx, a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	latest, err := d.LatestAttemptForSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.AttemptNumber != 3 {
		t.Errorf("got attempt number %d", latest.AttemptNumber)
	}

	all, err := d.ListAttemptsForTest(ctx, "test-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].AttemptNumber != 1 {
		t.Errorf("got %d attempts, first number %d", len(all), all[0].AttemptNumber)
	}
}

func TestDeleteTrainingData(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	if err := d.CreateSession(ctx, testSession("sess-1", "spec-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.CreateTest(ctx, &models.Test{ID: "test-1", SessionID: "sess-1", TestType: "competency", Questions: []models.Question{}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.CreateAttempt(ctx, &models.TestAttempt{ID: "att-1", TestID: "test-1", SessionID: "sess-1", AttemptNumber: 1, Answers: []models.Answer{}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.CreateKnowledgeEntry(ctx, &models.KnowledgeEntry{ID: "k-1", AgentID: "agent-1", Content: "notes", Source: "sess-1", Confidence: 50}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := d.DeleteTrainingData(ctx, []string{"sess-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := d.LatestTestForSession(ctx, "sess-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected tests removed, got %v", err)
	}
	if _, err := d.LatestAttemptForSession(ctx, "sess-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected attempts removed, got %v", err)
	}
	entries, err := d.ListKnowledgeForAgent(ctx, "agent-1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected knowledge removed, got %d entries", len(entries))
	}
}

func TestKnowledgeLimit(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := &models.KnowledgeEntry{
			ID:         "k-" + string(rune('a'+i)),
			AgentID:    "agent-1",
			Content:    "study material",
			Confidence: 60,
			Tags:       []string{"training"},
			CreatedAt:  time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := d.CreateKnowledgeEntry(ctx, e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := d.ListKnowledgeForAgent(ctx, "agent-1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d entries", len(got))
	}
	if got[0].ID != "k-e" {
		t.Errorf("expected newest first, got %s", got[0].ID)
	}
}
