package specialty

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/praxislabs/praxis/internal/database"
	"github.com/praxislabs/praxis/internal/store"
	"github.com/praxislabs/praxis/pkg/models"
)

func validSpecialty() *models.Specialty {
	return &models.Specialty{
		Name:             "distributed systems",
		Domain:           "engineering",
		CompetencyLevels: []string{"novice", "intermediate", "advanced", "expert"},
	}
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	r := NewRegistry(store.NewMemStore())
	ctx := context.Background()

	s := validSpecialty()
	if err := r.Create(ctx, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID == "" {
		t.Error("expected generated ID")
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := r.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "distributed systems" {
		t.Errorf("got name %q", got.Name)
	}
}

func TestCreateRejectsEmptyLadder(t *testing.T) {
	r := NewRegistry(store.NewMemStore())

	s := validSpecialty()
	s.CompetencyLevels = nil
	if err := r.Create(context.Background(), s); err == nil {
		t.Error("expected validation error for empty ladder")
	}
}

func TestDeleteRefusesActiveSessions(t *testing.T) {
	st := store.NewMemStore()
	r := NewRegistry(st)
	ctx := context.Background()

	s := validSpecialty()
	if err := r.Create(ctx, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	session := &models.TrainingSession{
		ID:                     "sess-1",
		AgentID:                "agent-1",
		SpecialtyID:            s.ID,
		TargetCompetencyLevel:  "expert",
		CurrentCompetencyLevel: "novice",
		Status:                 models.SessionStatusInProgress,
		CurrentIteration:       1,
		MaxIterations:          10,
	}
	if err := st.CreateSession(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := r.Delete(ctx, s.ID, false)
	if !errors.Is(err, ErrHasActiveSessions) {
		t.Errorf("expected ErrHasActiveSessions, got %v", err)
	}

	if _, err := r.Get(ctx, s.ID); err != nil {
		t.Errorf("specialty must survive a refused delete: %v", err)
	}
}

func TestForceDeleteResetsSessionsAndPurgesData(t *testing.T) {
	st := store.NewMemStore()
	r := NewRegistry(st)
	ctx := context.Background()

	s := validSpecialty()
	if err := r.Create(ctx, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	session := &models.TrainingSession{
		ID:                     "sess-1",
		AgentID:                "agent-1",
		SpecialtyID:            s.ID,
		TargetCompetencyLevel:  "expert",
		CurrentCompetencyLevel: "novice",
		Status:                 models.SessionStatusInProgress,
		Progress:               40,
		CurrentIteration:       2,
		MaxIterations:          10,
	}
	if err := st.CreateSession(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	test := &models.Test{
		ID:        "test-1",
		SessionID: session.ID,
		TestType:  "competency",
		Questions: []models.Question{{ID: "q1", Text: "?", Type: models.QuestionTypeMultipleChoice, CorrectAnswer: "a"}},
	}
	if err := st.CreateTest(ctx, test); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Delete(ctx, s.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := r.Get(ctx, s.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected specialty gone, got %v", err)
	}
	got, err := st.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("session must survive specialty delete: %v", err)
	}
	if got.Status != models.SessionStatusReset {
		t.Errorf("got status %s, want reset", got.Status)
	}
	if got.SpecialtyID != "" {
		t.Errorf("session still references deleted specialty %q", got.SpecialtyID)
	}
	if got.Progress != 0 {
		t.Errorf("got progress %d, want 0", got.Progress)
	}
	if _, err := st.GetTest(ctx, test.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected test purged, got %v", err)
	}
	orphans, err := st.ListSessionsBySpecialty(ctx, s.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orphans) != 0 {
		t.Errorf("%d sessions still point at the deleted specialty", len(orphans))
	}
}

func TestForceDeleteDetachesSessionsOnSQLStore(t *testing.T) {
	d, err := database.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	r := NewRegistry(d)
	ctx := context.Background()

	s := validSpecialty()
	if err := r.Create(ctx, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	session := &models.TrainingSession{
		ID:                     "sess-1",
		AgentID:                "agent-1",
		SpecialtyID:            s.ID,
		TargetCompetencyLevel:  "expert",
		CurrentCompetencyLevel: "novice",
		Status:                 models.SessionStatusInProgress,
		Progress:               40,
		CurrentIteration:       2,
		MaxIterations:          10,
		CurrentPhase:           models.PhaseStudy,
		StartedAt:              time.Now(),
	}
	if err := d.CreateSession(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	test := &models.Test{
		ID:        "test-1",
		SessionID: session.ID,
		TestType:  "competency",
		Questions: []models.Question{{ID: "q1", Text: "?", Type: models.QuestionTypeMultipleChoice, CorrectAnswer: "a"}},
	}
	if err := d.CreateTest(ctx, test); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Delete(ctx, s.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := d.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("session must survive specialty delete: %v", err)
	}
	if got.SpecialtyID != "" {
		t.Errorf("session still references deleted specialty %q", got.SpecialtyID)
	}
	if got.Status != models.SessionStatusReset {
		t.Errorf("got status %s, want reset", got.Status)
	}
	if _, err := d.LatestTestForSession(ctx, session.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected test purged, got %v", err)
	}
	orphans, err := d.ListSessionsBySpecialty(ctx, s.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orphans) != 0 {
		t.Errorf("%d sessions still point at the deleted specialty", len(orphans))
	}
}

func TestDeleteAllowsTerminalSessionsWithoutForce(t *testing.T) {
	st := store.NewMemStore()
	r := NewRegistry(st)
	ctx := context.Background()

	s := validSpecialty()
	if err := r.Create(ctx, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	session := &models.TrainingSession{
		ID:                     "sess-1",
		AgentID:                "agent-1",
		SpecialtyID:            s.ID,
		TargetCompetencyLevel:  "expert",
		CurrentCompetencyLevel: "expert",
		Status:                 models.SessionStatusCompleted,
		Progress:               100,
		CurrentIteration:       3,
		MaxIterations:          10,
	}
	if err := st.CreateSession(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Delete(ctx, s.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := st.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != models.SessionStatusReset {
		t.Errorf("got status %s, want reset", got.Status)
	}
}
