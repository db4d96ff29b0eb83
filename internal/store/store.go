package store

import (
	"context"
	"errors"

	"github.com/praxislabs/praxis/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict is returned when a session update presents a stale
// version. Callers should re-read the session and retry or give up.
var ErrVersionConflict = errors.New("session version conflict")

// Store is the single authoritative persistence abstraction for the training
// engine. There is exactly one production implementation (internal/database)
// and one in-memory test double (MemStore).
type Store interface {
	// Specialties
	CreateSpecialty(ctx context.Context, s *models.Specialty) error
	GetSpecialty(ctx context.Context, id string) (*models.Specialty, error)
	ListSpecialties(ctx context.Context) ([]*models.Specialty, error)
	UpdateSpecialty(ctx context.Context, s *models.Specialty) error
	// DeleteSpecialty removes the specialty row only. Dependent sessions and
	// training data must be neutralized first (see specialty.Registry).
	DeleteSpecialty(ctx context.Context, id string) error

	// Sessions
	CreateSession(ctx context.Context, s *models.TrainingSession) error
	GetSession(ctx context.Context, id string) (*models.TrainingSession, error)
	ListSessions(ctx context.Context) ([]*models.TrainingSession, error)
	ListSessionsByAgent(ctx context.Context, agentID string) ([]*models.TrainingSession, error)
	ListSessionsByStatus(ctx context.Context, status models.SessionStatus) ([]*models.TrainingSession, error)
	ListSessionsBySpecialty(ctx context.Context, specialtyID string) ([]*models.TrainingSession, error)
	// UpdateSession performs a compare-and-swap on the session's Version.
	// On success the stored and in-memory Version are incremented; a stale
	// Version yields ErrVersionConflict and no write.
	UpdateSession(ctx context.Context, s *models.TrainingSession) error

	// Tests
	CreateTest(ctx context.Context, t *models.Test) error
	GetTest(ctx context.Context, id string) (*models.Test, error)
	LatestTestForSession(ctx context.Context, sessionID string) (*models.Test, error)

	// Attempts (immutable once created)
	CreateAttempt(ctx context.Context, a *models.TestAttempt) error
	LatestAttemptForSession(ctx context.Context, sessionID string) (*models.TestAttempt, error)
	ListAttemptsForTest(ctx context.Context, testID string) ([]*models.TestAttempt, error)

	// Knowledge entries
	CreateKnowledgeEntry(ctx context.Context, e *models.KnowledgeEntry) error
	ListKnowledgeForAgent(ctx context.Context, agentID string, limit int) ([]*models.KnowledgeEntry, error)

	// DeleteTrainingData removes tests, attempts, and knowledge entries
	// belonging to the given sessions. Part of the specialty delete: the
	// sessions are reset and detached first, then their data is purged by
	// ID, so the purge cannot miss rows written before the reset landed.
	DeleteTrainingData(ctx context.Context, sessionIDs []string) error
}
