package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/praxislabs/praxis/internal/store"
	"github.com/praxislabs/praxis/pkg/models"
)

func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(b), nil
}

func unmarshalStrings(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw.String), &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal string list: %w", err)
	}
	return values, nil
}

// CreateSpecialty inserts a new specialty record.
func (d *Database) CreateSpecialty(ctx context.Context, s *models.Specialty) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = s.CreatedAt

	knowledge, err := marshalStrings(s.RequiredKnowledge)
	if err != nil {
		return err
	}
	levels, err := marshalStrings(s.CompetencyLevels)
	if err != nil {
		return err
	}

	_, err = d.db.ExecContext(ctx, rebind(`
		INSERT INTO specialties (id, name, domain, description, required_knowledge, competency_levels, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		s.ID, s.Name, s.Domain, s.Description, knowledge, levels, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert specialty: %w", err)
	}
	return nil
}

// GetSpecialty retrieves a specialty by ID.
func (d *Database) GetSpecialty(ctx context.Context, id string) (*models.Specialty, error) {
	row := d.db.QueryRowContext(ctx, rebind(`
		SELECT id, name, domain, description, required_knowledge, competency_levels, created_at, updated_at
		FROM specialties WHERE id = ?`), id)
	return scanSpecialty(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSpecialty(row rowScanner) (*models.Specialty, error) {
	var s models.Specialty
	var description, knowledge, levels sql.NullString
	err := row.Scan(&s.ID, &s.Name, &s.Domain, &description, &knowledge, &levels, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan specialty: %w", err)
	}
	s.Description = description.String
	if s.RequiredKnowledge, err = unmarshalStrings(knowledge); err != nil {
		return nil, err
	}
	if s.CompetencyLevels, err = unmarshalStrings(levels); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSpecialties returns all specialties ordered by name.
func (d *Database) ListSpecialties(ctx context.Context) ([]*models.Specialty, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, domain, description, required_knowledge, competency_levels, created_at, updated_at
		FROM specialties ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query specialties: %w", err)
	}
	defer rows.Close()

	var out []*models.Specialty
	for rows.Next() {
		s, err := scanSpecialty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateSpecialty updates an existing specialty record.
func (d *Database) UpdateSpecialty(ctx context.Context, s *models.Specialty) error {
	s.UpdatedAt = time.Now()

	knowledge, err := marshalStrings(s.RequiredKnowledge)
	if err != nil {
		return err
	}
	levels, err := marshalStrings(s.CompetencyLevels)
	if err != nil {
		return err
	}

	res, err := d.db.ExecContext(ctx, rebind(`
		UPDATE specialties
		SET name = ?, domain = ?, description = ?, required_knowledge = ?, competency_levels = ?, updated_at = ?
		WHERE id = ?`),
		s.Name, s.Domain, s.Description, knowledge, levels, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update specialty: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteSpecialty removes the specialty row only. Callers must neutralize
// dependent sessions and training data first.
func (d *Database) DeleteSpecialty(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, rebind(`DELETE FROM specialties WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete specialty: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTrainingData removes tests, attempts, and knowledge entries belonging
// to the given sessions, inside one transaction. Keyed by session ID so it
// works after the sessions have been detached from their specialty.
func (d *Database) DeleteTrainingData(ctx context.Context, sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(sessionIDs)), ", ")
	args := make([]interface{}, len(sessionIDs))
	for i, id := range sessionIDs {
		args[i] = id
	}

	stmts := []string{
		`DELETE FROM test_attempts WHERE session_id IN (` + placeholders + `)`,
		`DELETE FROM tests WHERE session_id IN (` + placeholders + `)`,
		`DELETE FROM knowledge_entries WHERE source IN (` + placeholders + `)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, rebind(stmt), args...); err != nil {
			return fmt.Errorf("failed to delete training data: %w", err)
		}
	}
	return tx.Commit()
}
