// Package history keeps a local record of typed prompts so the TUI can
// recall them, like shell history. Only the user's own input is stored;
// conversation transcripts always come from the server and are never
// written here.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS prompts (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    prompt     TEXT NOT NULL,
    language   TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_prompts_created_at ON prompts(created_at);
`

// Store is a SQLite-backed prompt history.
type Store struct {
	db         *sql.DB
	maxEntries int
}

// DefaultPath returns the default database path given the data dir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "history.db")
}

// Open opens (or creates) the history database at dbPath and ensures
// the schema exists. maxEntries <= 0 disables trimming.
func Open(dbPath string, maxEntries int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Add records a submitted prompt. Consecutive duplicates are skipped so
// resubmitting the same question does not flood recall.
func (s *Store) Add(prompt, language string) error {
	var last string
	err := s.db.QueryRow("SELECT prompt FROM prompts ORDER BY id DESC LIMIT 1").Scan(&last)
	if err == nil && last == prompt {
		return nil
	}
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read last prompt: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO prompts (prompt, language, created_at) VALUES (?, ?, ?)",
		prompt, language, time.Now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save prompt: %w", err)
	}

	if s.maxEntries > 0 {
		_, err = s.db.Exec(`
			DELETE FROM prompts WHERE id NOT IN
				(SELECT id FROM prompts ORDER BY id DESC LIMIT ?)`, s.maxEntries)
		if err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}
	return nil
}

// Recent returns up to n prompts, most recent first.
func (s *Store) Recent(n int) ([]string, error) {
	rows, err := s.db.Query("SELECT prompt FROM prompts ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
