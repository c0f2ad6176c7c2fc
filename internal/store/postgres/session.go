package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/vigil/internal/domain"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

const sessionColumns = `id, title, status, origin, original_prompt, source, context, created_at, updated_at, completed_at`

func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	var contextJSON []byte
	if len(s.Context) > 0 {
		contextJSON = s.Context
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.Title, s.Status, s.Origin, s.OriginalPrompt, s.Source,
		contextJSON, s.CreatedAt, s.UpdatedAt, s.CompletedAt,
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
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)

	return scanSession(row, "sessionRepo.GetByID")
}

func (r *SessionRepo) List(ctx context.Context, limit int) ([]*domain.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 ORDER BY updated_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.List: %w", err)
	}
	defer rows.Close()

	return collectSessions(rows, "sessionRepo.List")
}

func (r *SessionRepo) ListActive(ctx context.Context) ([]*domain.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE status NOT IN ($1, $2)
		 ORDER BY updated_at DESC`,
		domain.SessionStatusCompleted, domain.SessionStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.ListActive: %w", err)
	}
	defer rows.Close()

	return collectSessions(rows, "sessionRepo.ListActive")
}

func (r *SessionRepo) ListByStatus(ctx context.Context, status domain.SessionStatus) ([]*domain.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE status = $1
		 ORDER BY updated_at DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.ListByStatus: %w", err)
	}
	defer rows.Close()

	return collectSessions(rows, "sessionRepo.ListByStatus")
}

func (r *SessionRepo) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, completedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions SET status = $1, completed_at = $2, updated_at = $3 WHERE id = $4`,
		status, completedAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("sessionRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sessionRepo.UpdateStatus: %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func scanSession(row pgx.Row, caller string) (*domain.Session, error) {
	var s domain.Session

	err := row.Scan(
		&s.ID, &s.Title, &s.Status, &s.Origin, &s.OriginalPrompt, &s.Source,
		&s.Context, &s.CreatedAt, &s.UpdatedAt, &s.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", caller, err)
	}

	return &s, nil
}

func collectSessions(rows pgx.Rows, caller string) ([]*domain.Session, error) {
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
