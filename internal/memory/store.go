// Package memory handles persistent storage for the assistant memory
// document and the task index, using SQLite.
package memory

import (
	"context"
	"database/sql"
	"time"

	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"

	errs "github.com/scribe-ai/scribe/internal/errors"
)

// Store manages the assistant database.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at the given path, creating the file
// and tables if they don't exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeMemoryStoreFailed, "failed to open memory database", errs.CategorySystem)
	}

	store := &Store{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assistant_memory (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		content    TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		source       TEXT NOT NULL DEFAULT '',
		completed    INTEGER NOT NULL DEFAULT 0,
		due          TEXT NOT NULL DEFAULT '',
		created      TEXT NOT NULL DEFAULT '',
		start        TEXT NOT NULL DEFAULT '',
		scheduled    TEXT NOT NULL DEFAULT '',
		completed_on TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_source ON tasks(source);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errs.Wrap(err, errs.CodeMemoryStoreFailed, "failed to initialize memory schema", errs.CategorySystem)
	}
	return nil
}

// WriteMemory overwrites the assistant memory document. Memory always
// reflects the latest model intent, so there is exactly one row.
func (s *Store) WriteMemory(ctx context.Context, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assistant_memory (id, content, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`, content, time.Now().UTC())
	if err != nil {
		return errs.Wrap(err, errs.CodeMemoryStoreFailed, "failed to write assistant memory", errs.CategorySystem)
	}
	return nil
}

// ReadMemory returns the assistant memory document, or "" when none has
// been written yet.
func (s *Store) ReadMemory(ctx context.Context) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM assistant_memory WHERE id = 1`).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errs.Wrap(err, errs.CodeMemoryRetrieveFailed, "failed to read assistant memory", errs.CategorySystem)
	}
	return content, nil
}
