package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/praxislabs/praxis/pkg/models"
)

// CreateKnowledgeEntry inserts a study artifact for an agent.
func (d *Database) CreateKnowledgeEntry(ctx context.Context, e *models.KnowledgeEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	tags, err := marshalStrings(e.Tags)
	if err != nil {
		return err
	}

	_, err = d.db.ExecContext(ctx, rebind(`
		INSERT INTO knowledge_entries (id, agent_id, content, source, confidence, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.AgentID, e.Content, e.Source, e.Confidence, tags, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert knowledge entry: %w", err)
	}
	return nil
}

// ListKnowledgeForAgent retrieves recent knowledge entries for an agent,
// newest first, up to limit count.
func (d *Database) ListKnowledgeForAgent(ctx context.Context, agentID string, limit int) ([]*models.KnowledgeEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.QueryContext(ctx, rebind(`
		SELECT id, agent_id, content, source, confidence, tags, created_at
		FROM knowledge_entries WHERE agent_id = ? ORDER BY created_at DESC LIMIT ?`),
		agentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge entries: %w", err)
	}
	defer rows.Close()

	var out []*models.KnowledgeEntry
	for rows.Next() {
		var e models.KnowledgeEntry
		var source, tags sql.NullString
		if err := rows.Scan(&e.ID, &e.AgentID, &e.Content, &source, &e.Confidence, &tags, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
		}
		e.Source = source.String
		if e.Tags, err = unmarshalStrings(tags); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
