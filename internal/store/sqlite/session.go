package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gosuda/vigil/internal/domain"
)

type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

const sessionColumns = `id, title, status, origin, original_prompt, source, context, created_at, updated_at, completed_at`

func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	var contextJSON any
	if len(s.Context) > 0 {
		contextJSON = string(s.Context)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Title, s.Status, s.Origin, s.OriginalPrompt, s.Source,
		contextJSON, s.CreatedAt.UnixNano(), s.UpdatedAt.UnixNano(), nullTime(s.CompletedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sessionRepo.Create: %s: %w", s.ID, domain.ErrConflict)
		}
		return fmt.Errorf("sessionRepo.Create: %w", err)
	}

	return nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	s, err := scanSession(row, "sessionRepo.GetByID")
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (r *SessionRepo) List(ctx context.Context, limit int) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 ORDER BY updated_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.List: %w", err)
	}
	defer rows.Close()

	return collectSessions(rows, "sessionRepo.List")
}

func (r *SessionRepo) ListActive(ctx context.Context) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE status NOT IN (?, ?)
		 ORDER BY updated_at DESC`,
		domain.SessionStatusCompleted, domain.SessionStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.ListActive: %w", err)
	}
	defer rows.Close()

	return collectSessions(rows, "sessionRepo.ListActive")
}

func (r *SessionRepo) ListByStatus(ctx context.Context, status domain.SessionStatus) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE status = ?
		 ORDER BY updated_at DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.ListByStatus: %w", err)
	}
	defer rows.Close()

	return collectSessions(rows, "sessionRepo.ListByStatus")
}

func (r *SessionRepo) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, completedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		status, nullTime(completedAt), time.Now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("sessionRepo.UpdateStatus: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sessionRepo.UpdateStatus: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("sessionRepo.UpdateStatus: %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner, caller string) (*domain.Session, error) {
	var (
		s           domain.Session
		contextJSON sql.NullString
		createdAt   int64
		updatedAt   int64
		completedAt sql.NullInt64
	)

	err := row.Scan(
		&s.ID, &s.Title, &s.Status, &s.Origin, &s.OriginalPrompt, &s.Source,
		&contextJSON, &createdAt, &updatedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", caller, err)
	}

	if contextJSON.Valid {
		s.Context = json.RawMessage(contextJSON.String)
	}
	s.CreatedAt = time.Unix(0, createdAt).UTC()
	s.UpdatedAt = time.Unix(0, updatedAt).UTC()
	s.CompletedAt = timePtr(completedAt)

	return &s, nil
}

func collectSessions(rows *sql.Rows, caller string) ([]*domain.Session, error) {
	var sessions []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows, caller)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return sessions, nil
}
