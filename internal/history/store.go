// Package history keeps a local SQLite record of terminated pipeline
// sessions, so an operator can see what ran recently without asking
// the backend.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one terminated session.
type Entry struct {
	ID       int64
	Kind     string // scraping | generation
	Domain   string
	Outcome  string // completed | failed
	Articles int    // articles found (scraping)
	Posts    int    // posts produced (generation)
	Duration time.Duration
	EndedAt  time.Time
}

// Store persists session history.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default history database path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".postdesk", "history.sqlite")
}

// Open opens (and if needed creates) the history database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			domain TEXT NOT NULL,
			outcome TEXT NOT NULL,
			articles INTEGER NOT NULL DEFAULT 0,
			posts INTEGER NOT NULL DEFAULT 0,
			durationMs INTEGER NOT NULL DEFAULT 0,
			endedAt REAL NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one terminated session.
func (s *Store) Record(e Entry) error {
	endedAt := e.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO sessions (kind, domain, outcome, articles, posts, durationMs, endedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Kind, e.Domain, e.Outcome, e.Articles, e.Posts,
		e.Duration.Milliseconds(), float64(endedAt.UnixNano())/1e9)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Recent returns the latest n sessions, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, domain, outcome, articles, posts, durationMs, endedAt
		FROM sessions
		ORDER BY endedAt DESC, id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		var endedAt float64
		if err := rows.Scan(&e.ID, &e.Kind, &e.Domain, &e.Outcome,
			&e.Articles, &e.Posts, &durationMs, &endedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.EndedAt = timeFromUnix(endedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
