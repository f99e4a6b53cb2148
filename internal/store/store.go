// File: internal/store/store.go
// Description: SQLite-backed workflow persistence. Steps are stored as one
// JSON document per workflow; the table only indexes what list and lookup
// need.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
)

// ErrNotFound is returned when no workflow matches the requested ID.
var ErrNotFound = errors.New("workflow not found")

const schema = `
CREATE TABLE IF NOT EXISTS workflows (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    steps TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_workflows_created ON workflows(created_at);
`

// Store persists workflows in a SQLite database.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (creating if needed) the workflow database at path and applies
// the schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db, log: logger.Named("store")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts the workflow, assigning an ID and creation time when unset,
// and returns the stored copy.
func (s *Store) Save(ctx context.Context, wf schemas.Workflow) (schemas.Workflow, error) {
	if wf.ID == "" {
		wf.ID = uuid.NewString()
	}
	if wf.CreatedAt.IsZero() {
		wf.CreatedAt = time.Now().UTC()
	}

	steps, err := json.Marshal(wf.Steps)
	if err != nil {
		return schemas.Workflow{}, fmt.Errorf("encoding steps: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, name, description, steps, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, wf.ID, wf.Name, wf.Description, string(steps), wf.CreatedAt)
	if err != nil {
		return schemas.Workflow{}, fmt.Errorf("saving workflow: %w", err)
	}

	s.log.Info("Workflow saved",
		zap.String("id", wf.ID),
		zap.String("name", wf.Name),
		zap.Int("steps", len(wf.Steps)))
	return wf, nil
}

// Get retrieves one workflow with its steps.
func (s *Store) Get(ctx context.Context, id string) (schemas.Workflow, error) {
	var wf schemas.Workflow
	var steps string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, steps, created_at
		FROM workflows WHERE id = ?
	`, id).Scan(&wf.ID, &wf.Name, &wf.Description, &steps, &wf.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return schemas.Workflow{}, ErrNotFound
	}
	if err != nil {
		return schemas.Workflow{}, fmt.Errorf("loading workflow: %w", err)
	}

	if err := json.Unmarshal([]byte(steps), &wf.Steps); err != nil {
		return schemas.Workflow{}, fmt.Errorf("decoding steps: %w", err)
	}
	return wf, nil
}

// List returns all workflows, newest first, without their steps.
func (s *Store) List(ctx context.Context) ([]schemas.Workflow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at
		FROM workflows ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing workflows: %w", err)
	}
	defer rows.Close()

	var out []schemas.Workflow
	for rows.Next() {
		var wf schemas.Workflow
		if err := rows.Scan(&wf.ID, &wf.Name, &wf.Description, &wf.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workflow row: %w", err)
		}
		out = append(out, wf)
	}
	return out, rows.Err()
}

// Delete removes a workflow.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting workflow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting workflow: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.log.Info("Workflow deleted", zap.String("id", id))
	return nil
}

// Rename updates a workflow's name and description.
func (s *Store) Rename(ctx context.Context, id, name, description string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE workflows SET name = ?, description = ? WHERE id = ?
	`, name, description, id)
	if err != nil {
		return fmt.Errorf("renaming workflow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("renaming workflow: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
