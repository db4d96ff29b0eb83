package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/praxislabs/praxis/internal/store"
	"github.com/praxislabs/praxis/pkg/models"
)

const sessionColumns = `id, agent_id, specialty_id, target_level, current_level, status, progress,
	current_iteration, max_iterations, current_phase, last_processed_phase, last_processed_time,
	started_at, completed_at, version`

// CreateSession inserts a new training session. Version starts at 1.
func (d *Database) CreateSession(ctx context.Context, s *models.TrainingSession) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	if s.Version == 0 {
		s.Version = 1
	}

	_, err := d.db.ExecContext(ctx, rebind(`
		INSERT INTO training_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		s.ID, s.AgentID, s.SpecialtyID, s.TargetCompetencyLevel, s.CurrentCompetencyLevel,
		string(s.Status), s.Progress, s.CurrentIteration, s.MaxIterations, string(s.CurrentPhase),
		nullString(string(s.LastProcessedPhase)), nullTime(s.LastProcessedTime),
		s.StartedAt, s.CompletedAt, s.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (d *Database) GetSession(ctx context.Context, id string) (*models.TrainingSession, error) {
	row := d.db.QueryRowContext(ctx, rebind(`
		SELECT `+sessionColumns+` FROM training_sessions WHERE id = ?`), id)
	return scanSession(row)
}

func scanSession(row rowScanner) (*models.TrainingSession, error) {
	var s models.TrainingSession
	var status, phase string
	var lastPhase sql.NullString
	var lastTime, completedAt sql.NullTime
	err := row.Scan(
		&s.ID, &s.AgentID, &s.SpecialtyID, &s.TargetCompetencyLevel, &s.CurrentCompetencyLevel,
		&status, &s.Progress, &s.CurrentIteration, &s.MaxIterations, &phase,
		&lastPhase, &lastTime, &s.StartedAt, &completedAt, &s.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	s.Status = models.SessionStatus(status)
	s.CurrentPhase = models.TrainingPhase(phase)
	if lastPhase.Valid {
		s.LastProcessedPhase = models.TrainingPhase(lastPhase.String)
	}
	if lastTime.Valid {
		s.LastProcessedTime = lastTime.Time
	}
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return &s, nil
}

// ListSessions returns all training sessions ordered by start time.
func (d *Database) ListSessions(ctx context.Context) ([]*models.TrainingSession, error) {
	return d.querySessions(ctx, `SELECT `+sessionColumns+` FROM training_sessions ORDER BY started_at`)
}

// ListSessionsByAgent returns all sessions for one agent.
func (d *Database) ListSessionsByAgent(ctx context.Context, agentID string) ([]*models.TrainingSession, error) {
	return d.querySessions(ctx,
		rebind(`SELECT `+sessionColumns+` FROM training_sessions WHERE agent_id = ? ORDER BY started_at`), agentID)
}

// ListSessionsByStatus returns all sessions in the given status.
func (d *Database) ListSessionsByStatus(ctx context.Context, status models.SessionStatus) ([]*models.TrainingSession, error) {
	return d.querySessions(ctx,
		rebind(`SELECT `+sessionColumns+` FROM training_sessions WHERE status = ? ORDER BY started_at`), string(status))
}

// ListSessionsBySpecialty returns all sessions referencing a specialty.
func (d *Database) ListSessionsBySpecialty(ctx context.Context, specialtyID string) ([]*models.TrainingSession, error) {
	return d.querySessions(ctx,
		rebind(`SELECT `+sessionColumns+` FROM training_sessions WHERE specialty_id = ? ORDER BY started_at`), specialtyID)
}

func (d *Database) querySessions(ctx context.Context, query string, args ...interface{}) ([]*models.TrainingSession, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []*models.TrainingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateSession writes a session transition with an optimistic version check.
// The WHERE clause matches id and the version the caller read; zero rows
// affected means a concurrent writer won and the caller gets
// store.ErrVersionConflict.
func (d *Database) UpdateSession(ctx context.Context, s *models.TrainingSession) error {
	res, err := d.db.ExecContext(ctx, rebind(`
		UPDATE training_sessions
		SET specialty_id = ?, target_level = ?, current_level = ?, status = ?, progress = ?,
			current_iteration = ?, max_iterations = ?, current_phase = ?,
			last_processed_phase = ?, last_processed_time = ?, completed_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?`),
		s.SpecialtyID, s.TargetCompetencyLevel, s.CurrentCompetencyLevel, string(s.Status), s.Progress,
		s.CurrentIteration, s.MaxIterations, string(s.CurrentPhase),
		nullString(string(s.LastProcessedPhase)), nullTime(s.LastProcessedTime), s.CompletedAt,
		s.ID, s.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		if _, getErr := d.GetSession(ctx, s.ID); errors.Is(getErr, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return store.ErrVersionConflict
	}
	s.Version++
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
