// Package profile keeps what the client remembers between runs: the display
// name last used and a journal of finished matches.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sortalost/blackjack/game"
	"github.com/sortalost/blackjack/score"

	_ "modernc.org/sqlite"
)

const (
	// InMemory opens a store that is gone when closed.
	InMemory = ":memory:"

	nameKey = "display_name"
)

// Store is a SQLite backed profile. It implements score.Journal.
type Store struct {
	db *sql.DB
}

var _ score.Journal = (*Store)(nil)

// Outcome is one row of the match journal.
type Outcome struct {
	Index    int
	PlayedAt time.Time
	Room     string
	Outcome  game.Outcome
}

// Open opens (creating if needed) the profile database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty profile path")
	}
	if path != InMemory {
		parent := filepath.Dir(path)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pragmas := []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at_ms INTEGER NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS outcomes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_index INTEGER NOT NULL,
    room TEXT NOT NULL,
    outcome TEXT NOT NULL,
    played_at INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_played_at ON outcomes(played_at)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("profile schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DisplayName returns the remembered name, or "" if none was saved.
func (s *Store) DisplayName(ctx context.Context) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, nameKey).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func (s *Store) SetDisplayName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, nameKey)
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO settings (key, value, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at_ms = excluded.updated_at_ms
`, nameKey, name, time.Now().UTC().UnixMilli())
	return err
}

// AppendOutcome journals a finished match.
func (s *Store) AppendOutcome(ctx context.Context, e score.Entry) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO outcomes (session_index, room, outcome, played_at)
VALUES (?, ?, ?, ?)
`, e.Index, e.Room, string(e.Outcome), e.Timestamp)
	if err != nil {
		return fmt.Errorf("journal outcome: %w", err)
	}
	return nil
}

// RecentOutcomes returns up to limit journaled matches, newest first.
func (s *Store) RecentOutcomes(ctx context.Context, limit int) ([]Outcome, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT session_index, room, outcome, played_at
FROM outcomes
ORDER BY id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var (
			o        Outcome
			outcome  string
			playedAt int64
		)
		if err := rows.Scan(&o.Index, &o.Room, &outcome, &playedAt); err != nil {
			return nil, err
		}
		o.Outcome = game.Outcome(outcome)
		o.PlayedAt = time.Unix(playedAt, 0)
		out = append(out, o)
	}
	return out, rows.Err()
}
