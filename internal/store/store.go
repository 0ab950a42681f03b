// Package store is the durable record store behind the memo windows:
// four collections (memos, folders, tags, settings) over a single
// SQLite database. It holds no editing logic; debounce and undo live
// with the callers.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store handles SQLite operations for memos, folders, tags, and settings.
type Store struct {
	db *sql.DB

	// now is swappable so tests can control updated_at ordering.
	now func() time.Time
}

// Open opens (creating if needed) the database at dbPath and ensures
// the schema exists. The parent directory is created when missing.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// DefaultDBPath returns the database location under the user config
// directory, honoring savePath when the user relocated their data.
func DefaultDBPath(savePath string) string {
	if savePath != "" {
		return filepath.Join(savePath, "memos.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "memos.db"
	}
	return filepath.Join(home, ".config", "memopad", "memos.db")
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS memos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT,
    content TEXT,
    canvas_data TEXT,
    mode TEXT DEFAULT 'text',
    folder_id INTEGER,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    window_state TEXT,
    FOREIGN KEY (folder_id) REFERENCES folders(id)
);
CREATE INDEX IF NOT EXISTS idx_memos_updated ON memos(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_memos_folder ON memos(folder_id);

CREATE TABLE IF NOT EXISTS folders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    parent_id INTEGER,
    created_at TEXT NOT NULL,
    FOREIGN KEY (parent_id) REFERENCES folders(id)
);

CREATE TABLE IF NOT EXISTS tags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS memo_tags (
    memo_id INTEGER,
    tag_id INTEGER,
    PRIMARY KEY (memo_id, tag_id),
    FOREIGN KEY (memo_id) REFERENCES memos(id),
    FOREIGN KEY (tag_id) REFERENCES tags(id)
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`
	_, err := s.db.Exec(schema)
	return err
}

// timestamps are stored as RFC3339Nano text so updated_at ordering is
// stable even for writes inside the same second.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
