package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/vigil/internal/domain"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

const activityColumns = `id, session_id, agent, action, result, success, metadata, created_at`

func (r *ActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("activityRepo.Create: encode metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO activities (`+activityColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.SessionID, a.Agent, a.Action, a.Result, a.Success, metadata, a.CreatedAt,
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
	rows, err := r.pool.Query(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE session_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, sessionID, limit)
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

// FindByRemoteID probes for a mirrored remote activity by the idempotency
// key carried in its metadata. A partial index on
// (session_id, (metadata->>'activity_id')) keeps this lookup cheap.
func (r *ActivityRepo) FindByRemoteID(ctx context.Context, sessionID, remoteID string) (*domain.Activity, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE session_id = $1 AND metadata->>'activity_id' = $2
		 LIMIT 1`, sessionID, remoteID)

	return scanActivity(row, "activityRepo.FindByRemoteID")
}

func scanActivity(row pgx.Row, caller string) (*domain.Activity, error) {
	var (
		a        domain.Activity
		metadata []byte
	)

	err := row.Scan(&a.ID, &a.SessionID, &a.Agent, &a.Action, &a.Result, &a.Success, &metadata, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", caller, err)
	}

	if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
		return nil, fmt.Errorf("%s: decode metadata: %w", caller, err)
	}

	return &a, nil
}
