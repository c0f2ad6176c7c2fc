package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/vigil/internal/domain"
)

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

const activityColumns = `id, session_id, agent, action, result, success, metadata, created_at`

func (r *ActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("activityRepo.Create: encode metadata: %w", err)
	}

	// The remote id is kept in a dedicated indexed column besides the
	// metadata blob; the unique index on it is what makes mirroring
	// idempotent under concurrent writers.
	var remoteID sql.NullString
	if v, ok := a.Metadata[domain.MetaRemoteID].(string); ok && v != "" {
		remoteID = sql.NullString{String: v, Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO activities (id, session_id, agent, action, result, success, metadata, remote_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.SessionID, a.Agent, a.Action, a.Result, a.Success,
		string(metadata), remoteID, a.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("activityRepo.Create: %s: %w", a.SessionID, domain.ErrConflict)
		}
		return fmt.Errorf("activityRepo.Create: %w", err)
	}

	return nil
}

func (r *ActivityRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE session_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("activityRepo.ListBySession: %w", err)
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows, "activityRepo.ListBySession")
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("activityRepo.ListBySession: rows: %w", err)
	}

	return activities, nil
}

func (r *ActivityRepo) FindByRemoteID(ctx context.Context, sessionID, remoteID string) (*domain.Activity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE session_id = ? AND remote_id = ?`, sessionID, remoteID)

	return scanActivity(row, "activityRepo.FindByRemoteID")
}

func scanActivity(row rowScanner, caller string) (*domain.Activity, error) {
	var (
		a         domain.Activity
		id        string
		metadata  string
		createdAt int64
	)

	err := row.Scan(&id, &a.SessionID, &a.Agent, &a.Action, &a.Result, &a.Success, &metadata, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", caller, err)
	}

	a.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%s: parse id: %w", caller, err)
	}
	if err := json.Unmarshal([]byte(metadata), &a.Metadata); err != nil {
		return nil, fmt.Errorf("%s: decode metadata: %w", caller, err)
	}
	a.CreatedAt = time.Unix(0, createdAt).UTC()

	return &a, nil
}
