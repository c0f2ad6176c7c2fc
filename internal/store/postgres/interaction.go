package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/vigil/internal/domain"
)

type InteractionRepo struct {
	pool *pgxpool.Pool
}

func NewInteractionRepo(pool *pgxpool.Pool) *InteractionRepo {
	return &InteractionRepo{pool: pool}
}

const interactionColumns = `id, session_id, type, jules_message, agent_response, success, error, created_at`

func (r *InteractionRepo) Create(ctx context.Context, i *domain.Interaction) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO interactions (`+interactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		i.ID, i.SessionID, i.Type, i.JulesMessage, i.AgentResponse, i.Success, i.Error, i.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("interactionRepo.Create: %s: %w", i.SessionID, domain.ErrConflict)
		}
		return fmt.Errorf("interactionRepo.Create: %w", err)
	}

	return nil
}

func (r *InteractionRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.Interaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+interactionColumns+` FROM interactions
		 WHERE session_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("interactionRepo.ListBySession: %w", err)
	}
	defer rows.Close()

	var interactions []*domain.Interaction
	for rows.Next() {
		i, err := scanInteraction(rows, "interactionRepo.ListBySession")
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("interactionRepo.ListBySession: rows: %w", err)
	}

	return interactions, nil
}

// FindAgentReply matches both successful replies and failed-send ERROR rows:
// a question that was already attempted is never attempted again, whatever
// the outcome of the send.
func (r *InteractionRepo) FindAgentReply(ctx context.Context, sessionID, message string) (*domain.Interaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+interactionColumns+` FROM interactions
		 WHERE session_id = $1 AND jules_message = $2 AND type IN ($3, $4)
		 ORDER BY created_at DESC
		 LIMIT 1`,
		sessionID, message, domain.InteractionAgentReply, domain.InteractionError)

	return scanInteraction(row, "interactionRepo.FindAgentReply")
}

func scanInteraction(row pgx.Row, caller string) (*domain.Interaction, error) {
	var i domain.Interaction

	err := row.Scan(&i.ID, &i.SessionID, &i.Type, &i.JulesMessage, &i.AgentResponse, &i.Success, &i.Error, &i.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", caller, err)
	}

	return &i, nil
}
