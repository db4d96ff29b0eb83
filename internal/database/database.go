package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/praxislabs/praxis/internal/store"
)

// Database is the production Store implementation, backed by SQLite for
// local deployments and PostgreSQL when configured (see NewPostgres).
type Database struct {
	db *sql.DB
}

var _ store.Store = (*Database)(nil)

// New creates a SQLite-backed database and initializes the schema.
// Use ":memory:" for an ephemeral database.
func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	d := &Database{db: db}
	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return d, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// initSchema creates the training tables. The statements are shared between
// SQLite and PostgreSQL; list-valued fields are stored as JSON text.
func (d *Database) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS specialties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		domain TEXT NOT NULL,
		description TEXT,
		required_knowledge TEXT,
		competency_levels TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS training_sessions (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		specialty_id TEXT NOT NULL,
		target_level TEXT NOT NULL,
		current_level TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'in_progress',
		progress INTEGER NOT NULL DEFAULT 0,
		current_iteration INTEGER NOT NULL DEFAULT 1,
		max_iterations INTEGER NOT NULL,
		current_phase TEXT NOT NULL DEFAULT 'study',
		last_processed_phase TEXT,
		last_processed_time TIMESTAMP,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		version INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS tests (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		test_type TEXT NOT NULL,
		questions TEXT NOT NULL,
		passing_score INTEGER NOT NULL,
		difficulty TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS test_attempts (
		id TEXT PRIMARY KEY,
		test_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		attempt_number INTEGER NOT NULL,
		answers TEXT NOT NULL,
		score INTEGER NOT NULL,
		passed BOOLEAN NOT NULL,
		feedback TEXT,
		completed_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS knowledge_entries (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		content TEXT NOT NULL,
		source TEXT,
		confidence INTEGER NOT NULL DEFAULT 50,
		tags TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_agent ON training_sessions(agent_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON training_sessions(status);
	CREATE INDEX IF NOT EXISTS idx_sessions_specialty ON training_sessions(specialty_id);
	CREATE INDEX IF NOT EXISTS idx_tests_session ON tests(session_id);
	CREATE INDEX IF NOT EXISTS idx_attempts_session ON test_attempts(session_id);
	CREATE INDEX IF NOT EXISTS idx_attempts_test ON test_attempts(test_id);
	CREATE INDEX IF NOT EXISTS idx_knowledge_agent ON knowledge_entries(agent_id);
	CREATE INDEX IF NOT EXISTS idx_knowledge_source ON knowledge_entries(source);
	`

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// rebind converts ? placeholders to $1, $2, ... parameter syntax, which both
// lib/pq and go-sqlite3 accept. Used for every parameterized query in this
// package so statements stay driver-portable.
func rebind(query string) string {
	n := 1
	out := strings.Builder{}
	for _, ch := range query {
		if ch == '?' {
			out.WriteString(fmt.Sprintf("$%d", n))
			n++
		} else {
			out.WriteRune(ch)
		}
	}
	return out.String()
}
