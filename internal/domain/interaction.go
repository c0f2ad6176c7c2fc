package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type InteractionType string

const (
	InteractionStatusCheck        InteractionType = "STATUS_CHECK"
	InteractionAutoApproval       InteractionType = "AUTO_APPROVAL"
	InteractionInterventionNeeded InteractionType = "INTERVENTION_NEEDED"
	InteractionAgentReply         InteractionType = "AGENT_REPLY"
	InteractionRetrofit           InteractionType = "RETROFIT"
	InteractionError              InteractionType = "ERROR"
)

// Interaction is one exchange with the remote agent. JulesMessage carries the
// exact question or prompt relayed to the remote side; the field name matches
// the historical wire format.
type Interaction struct {
	ID            uuid.UUID
	SessionID     string
	Type          InteractionType
	JulesMessage  string
	AgentResponse string
	Success       bool
	Error         string
	CreatedAt     time.Time
}

type InteractionRepository interface {
	Create(ctx context.Context, i *Interaction) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*Interaction, error)
	// FindAgentReply looks up a prior automated reply attempt (AGENT_REPLY
	// or a failed-send ERROR row) whose JulesMessage exactly matches
	// message. Returns ErrNotFound when the question was never attempted,
	// which is what clears an intervention to proceed.
	FindAgentReply(ctx context.Context, sessionID, message string) (*Interaction, error)
}
