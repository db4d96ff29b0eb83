package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/praxislabs/praxis/internal/store"
	"github.com/praxislabs/praxis/pkg/models"
)

// CreateTest inserts a generated test.
func (d *Database) CreateTest(ctx context.Context, t *models.Test) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	questions, err := json.Marshal(t.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	_, err = d.db.ExecContext(ctx, rebind(`
		INSERT INTO tests (id, session_id, test_type, questions, passing_score, difficulty, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		t.ID, t.SessionID, t.TestType, string(questions), t.PassingScore, t.Difficulty, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert test: %w", err)
	}
	return nil
}

// GetTest retrieves a test by ID.
func (d *Database) GetTest(ctx context.Context, id string) (*models.Test, error) {
	row := d.db.QueryRowContext(ctx, rebind(`
		SELECT id, session_id, test_type, questions, passing_score, difficulty, created_at
		FROM tests WHERE id = ?`), id)
	return scanTest(row)
}

// LatestTestForSession returns the most recently generated test for a session.
func (d *Database) LatestTestForSession(ctx context.Context, sessionID string) (*models.Test, error) {
	row := d.db.QueryRowContext(ctx, rebind(`
		SELECT id, session_id, test_type, questions, passing_score, difficulty, created_at
		FROM tests WHERE session_id = ? ORDER BY created_at DESC LIMIT 1`), sessionID)
	return scanTest(row)
}

func scanTest(row rowScanner) (*models.Test, error) {
	var t models.Test
	var questions string
	var difficulty sql.NullString
	err := row.Scan(&t.ID, &t.SessionID, &t.TestType, &questions, &t.PassingScore, &difficulty, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan test: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &t.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	t.Difficulty = difficulty.String
	return &t, nil
}

// CreateAttempt inserts a test attempt. Attempts are never updated.
func (d *Database) CreateAttempt(ctx context.Context, a *models.TestAttempt) error {
	if a.CompletedAt.IsZero() {
		a.CompletedAt = time.Now()
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	feedback, err := marshalStrings(a.Feedback)
	if err != nil {
		return err
	}

	_, err = d.db.ExecContext(ctx, rebind(`
		INSERT INTO test_attempts (id, test_id, session_id, attempt_number, answers, score, passed, feedback, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.TestID, a.SessionID, a.AttemptNumber, string(answers), a.Score, a.Passed, feedback, a.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	return nil
}

// LatestAttemptForSession returns the attempt with the highest attempt number.
func (d *Database) LatestAttemptForSession(ctx context.Context, sessionID string) (*models.TestAttempt, error) {
	row := d.db.QueryRowContext(ctx, rebind(`
		SELECT id, test_id, session_id, attempt_number, answers, score, passed, feedback, completed_at
		FROM test_attempts WHERE session_id = ? ORDER BY attempt_number DESC LIMIT 1`), sessionID)
	return scanAttempt(row)
}

// ListAttemptsForTest returns attempts for a test in submission order.
func (d *Database) ListAttemptsForTest(ctx context.Context, testID string) ([]*models.TestAttempt, error) {
	rows, err := d.db.QueryContext(ctx, rebind(`
		SELECT id, test_id, session_id, attempt_number, answers, score, passed, feedback, completed_at
		FROM test_attempts WHERE test_id = ? ORDER BY attempt_number`), testID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var out []*models.TestAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAttempt(row rowScanner) (*models.TestAttempt, error) {
	var a models.TestAttempt
	var answers string
	var feedback sql.NullString
	err := row.Scan(&a.ID, &a.TestID, &a.SessionID, &a.AttemptNumber, &answers, &a.Score, &a.Passed, &feedback, &a.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan attempt: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
	}
	if a.Feedback, err = unmarshalStrings(feedback); err != nil {
		return nil, err
	}
	return &a, nil
}
