package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/vigil/internal/domain"
)

type InteractionRepo struct {
	db *sql.DB
}

func NewInteractionRepo(db *sql.DB) *InteractionRepo {
	return &InteractionRepo{db: db}
}

const interactionColumns = `id, session_id, type, jules_message, agent_response, success, error, created_at`

func (r *InteractionRepo) Create(ctx context.Context, i *domain.Interaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO interactions (`+interactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID.String(), i.SessionID, i.Type, i.JulesMessage, i.AgentResponse,
		i.Success, i.Error, i.CreatedAt.UnixNano(),
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
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions
		 WHERE session_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`, sessionID, limit)
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
	row := r.db.QueryRowContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions
		 WHERE session_id = ? AND jules_message = ? AND type IN (?, ?)
		 ORDER BY created_at DESC
		 LIMIT 1`,
		sessionID, message, domain.InteractionAgentReply, domain.InteractionError)

	return scanInteraction(row, "interactionRepo.FindAgentReply")
}

func scanInteraction(row rowScanner, caller string) (*domain.Interaction, error) {
	var (
		i         domain.Interaction
		id        string
		createdAt int64
	)

	err := row.Scan(&id, &i.SessionID, &i.Type, &i.JulesMessage, &i.AgentResponse, &i.Success, &i.Error, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", caller, err)
	}

	i.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%s: parse id: %w", caller, err)
	}
	i.CreatedAt = time.Unix(0, createdAt).UTC()

	return &i, nil
}
