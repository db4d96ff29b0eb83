// Package specialty manages the catalog of competency domains. Every
// specialty carries an ordered ladder of mastery levels that training
// sessions progress along.
package specialty

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/praxislabs/praxis/internal/store"
	"github.com/praxislabs/praxis/pkg/models"
)

// ErrHasActiveSessions is returned by Delete when force is false and sessions
// still reference the specialty.
var ErrHasActiveSessions = errors.New("specialty has active training sessions")

// Registry manages specialty definitions and owns the deletion protocol that
// keeps dependent sessions consistent.
type Registry struct {
	store store.Store
}

// NewRegistry creates a specialty registry
func NewRegistry(st store.Store) *Registry {
	return &Registry{store: st}
}

// Create validates and persists a new specialty
func (r *Registry) Create(ctx context.Context, s *models.Specialty) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	if err := r.store.CreateSpecialty(ctx, s); err != nil {
		return fmt.Errorf("failed to create specialty: %w", err)
	}
	log.Printf("[Specialty] created %s (%s) with %d levels", s.Name, s.ID, len(s.CompetencyLevels))
	return nil
}

// Get returns a specialty by ID
func (r *Registry) Get(ctx context.Context, id string) (*models.Specialty, error) {
	return r.store.GetSpecialty(ctx, id)
}

// List returns all specialties
func (r *Registry) List(ctx context.Context) ([]*models.Specialty, error) {
	return r.store.ListSpecialties(ctx)
}

// Update validates and persists changes to an existing specialty. The ladder
// may change shape; sessions holding levels no longer on the ladder are left
// to the orchestrator, which fails them on their next advancement.
func (r *Registry) Update(ctx context.Context, s *models.Specialty) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	if err := r.store.UpdateSpecialty(ctx, s); err != nil {
		return fmt.Errorf("failed to update specialty: %w", err)
	}
	return nil
}

// Delete removes a specialty and neutralizes everything that depends on it.
// Dependent sessions are reset rather than deleted, so the agent's history
// survives the specialty. With force false, the presence of non-terminal
// sessions aborts the delete.
//
// The sequence is: CAS-reset and detach the sessions so no orchestrator run
// can persist new tests for them, then purge tests/attempts/knowledge by
// session ID, then drop the specialty row. A crash mid-way leaves a live
// specialty with reset sessions, which a retried Delete finishes; it never
// leaves sessions pointing at a missing specialty.
func (r *Registry) Delete(ctx context.Context, id string, force bool) error {
	if _, err := r.store.GetSpecialty(ctx, id); err != nil {
		return err
	}

	sessions, err := r.store.ListSessionsBySpecialty(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list dependent sessions: %w", err)
	}

	if !force {
		for _, s := range sessions {
			if !s.Status.IsTerminal() && s.Status != models.SessionStatusReset {
				return fmt.Errorf("%w: session %s is %s", ErrHasActiveSessions, s.ID, s.Status)
			}
		}
	}

	sessionIDs := make([]string, 0, len(sessions))
	for _, s := range sessions {
		sessionIDs = append(sessionIDs, s.ID)
		if err := r.resetSession(ctx, s); err != nil {
			return fmt.Errorf("failed to reset session %s: %w", s.ID, err)
		}
	}

	if err := r.store.DeleteTrainingData(ctx, sessionIDs); err != nil {
		return fmt.Errorf("failed to purge training data: %w", err)
	}

	if err := r.store.DeleteSpecialty(ctx, id); err != nil {
		return fmt.Errorf("failed to delete specialty: %w", err)
	}
	log.Printf("[Specialty] deleted %s, reset %d sessions", id, len(sessions))
	return nil
}

// resetSession marks a session reset and detaches it from the specialty,
// retrying around concurrent writers. No session may keep referencing a
// deleted specialty.
func (r *Registry) resetSession(ctx context.Context, s *models.TrainingSession) error {
	for attempt := 0; attempt < 3; attempt++ {
		s.Status = models.SessionStatusReset
		s.SpecialtyID = ""
		s.Progress = 0
		err := r.store.UpdateSession(ctx, s)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		fresh, gerr := r.store.GetSession(ctx, s.ID)
		if gerr != nil {
			return gerr
		}
		s = fresh
	}
	return store.ErrVersionConflict
}
