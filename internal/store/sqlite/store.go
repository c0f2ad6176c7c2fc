// Package sqlite implements the domain repositories on an embedded SQLite
// database. It is the default store for single-binary deployments and the
// store the repository behavior tests run against.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gosuda/vigil/internal/domain"
)

type Store struct {
	db           *sql.DB
	sessions     *SessionRepo
	activities   *ActivityRepo
	interactions *InteractionRepo
}

// New opens (or creates) the database at path and bootstraps the schema.
// WAL mode keeps the reconciler and interactive pollers from tripping over
// each other's writes.
func New(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create directory: %w", err)
		}
	}

	dsn := path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open: %w", err)
	}

	db.SetMaxOpenConns(1) // single writer; serializes all statements
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: ping: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}

	return &Store{
		db:           db,
		sessions:     NewSessionRepo(db),
		activities:   NewActivityRepo(db),
		interactions: NewInteractionRepo(db),
	}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS sessions (
		id              TEXT PRIMARY KEY,
		title           TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		origin          TEXT NOT NULL,
		original_prompt TEXT NOT NULL DEFAULT '',
		source          TEXT NOT NULL DEFAULT '',
		context         TEXT,
		created_at      INTEGER NOT NULL,
		updated_at      INTEGER NOT NULL,
		completed_at    INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);

	CREATE TABLE IF NOT EXISTS activities (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		agent      TEXT NOT NULL DEFAULT '',
		action     TEXT NOT NULL DEFAULT '',
		result     TEXT NOT NULL DEFAULT '',
		success    INTEGER NOT NULL DEFAULT 0,
		metadata   TEXT NOT NULL DEFAULT '{}',
		remote_id  TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activities_session ON activities(session_id, created_at);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_activities_remote
		ON activities(session_id, remote_id) WHERE remote_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS interactions (
		id             TEXT PRIMARY KEY,
		session_id     TEXT NOT NULL,
		type           TEXT NOT NULL,
		jules_message  TEXT NOT NULL DEFAULT '',
		agent_response TEXT NOT NULL DEFAULT '',
		success        INTEGER NOT NULL DEFAULT 0,
		error          TEXT NOT NULL DEFAULT '',
		created_at     INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_interactions_message ON interactions(session_id, jules_message);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("sqlite.Store.Close: %w", err)
	}
	return nil
}

func (s *Store) Sessions() domain.SessionRepository         { return s.sessions }
func (s *Store) Activities() domain.ActivityRepository      { return s.activities }
func (s *Store) Interactions() domain.InteractionRepository { return s.interactions }

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. The driver exposes no typed error for this.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullTime converts between *time.Time and the nullable unix-nano column.
func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64).UTC()
	return &t
}
