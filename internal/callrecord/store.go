// Package callrecord persists a durable log of calls and spoken turns.
// Recording is best-effort: failures are reported to the caller, which
// logs and keeps the live call going.
package callrecord

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/apexai-labs/onyx/internal/domain"
)

// Store is a SQLite-backed call log.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the call log at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS calls (
stream_sid TEXT PRIMARY KEY,
started_at TIMESTAMP NOT NULL,
ended_at TIMESTAMP
)`,
		`CREATE TABLE IF NOT EXISTS call_turns (
id TEXT PRIMARY KEY,
stream_sid TEXT NOT NULL,
role TEXT NOT NULL,
content TEXT NOT NULL,
created_at TIMESTAMP NOT NULL,
FOREIGN KEY (stream_sid) REFERENCES calls(stream_sid) ON DELETE CASCADE
)`,
		`CREATE INDEX IF NOT EXISTS idx_call_turns_stream_sid ON call_turns(stream_sid)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// StartCall records the beginning of a call.
func (s *Store) StartCall(ctx context.Context, streamSid string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calls (stream_sid, started_at) VALUES (?, ?)
		 ON CONFLICT(stream_sid) DO NOTHING`,
		streamSid, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record call start: %w", err)
	}
	return nil
}

// AddTurn records one spoken turn for a call.
func (s *Store) AddTurn(ctx context.Context, streamSid string, role domain.Role, text string) error {
	if text == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO call_turns (id, stream_sid, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		"turn_"+uuid.New().String(), streamSid, string(role), text, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

// EndCall records the end of a call. Idempotent.
func (s *Store) EndCall(ctx context.Context, streamSid string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE calls SET ended_at = ? WHERE stream_sid = ? AND ended_at IS NULL`,
		time.Now().UTC(), streamSid)
	if err != nil {
		return fmt.Errorf("record call end: %w", err)
	}
	return nil
}

// CallSummary is one row of the operator-facing call listing.
type CallSummary struct {
	StreamSid string     `db:"stream_sid" json:"stream_sid"`
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	TurnCount int        `db:"turn_count" json:"turn_count"`
}

// RecentCalls lists the most recent calls with their turn counts.
func (s *Store) RecentCalls(ctx context.Context, limit int) ([]CallSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	var calls []CallSummary
	err := s.db.SelectContext(ctx, &calls,
		`SELECT c.stream_sid, c.started_at, c.ended_at,
		        (SELECT COUNT(*) FROM call_turns t WHERE t.stream_sid = c.stream_sid) AS turn_count
		 FROM calls c
		 ORDER BY c.started_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	return calls, nil
}

// Turn is one recorded utterance.
type Turn struct {
	Role      string    `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Turns returns a call's recorded turns in insertion order.
func (s *Store) Turns(ctx context.Context, streamSid string) ([]Turn, error) {
	var turns []Turn
	err := s.db.SelectContext(ctx, &turns,
		`SELECT role, content, created_at FROM call_turns
		 WHERE stream_sid = ? ORDER BY created_at, id`, streamSid)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	return turns, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
