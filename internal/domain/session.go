package domain

import (
	"context"
	"encoding/json"
	"time"
)

type SessionStatus string

const (
	SessionStatusQueued               SessionStatus = "QUEUED"
	SessionStatusPlanning             SessionStatus = "PLANNING"
	SessionStatusAwaitingPlanApproval SessionStatus = "AWAITING_PLAN_APPROVAL"
	SessionStatusAwaitingUserFeedback SessionStatus = "AWAITING_USER_FEEDBACK"
	SessionStatusInProgress           SessionStatus = "IN_PROGRESS"
	SessionStatusPaused               SessionStatus = "PAUSED"
	SessionStatusCompleted            SessionStatus = "COMPLETED"
	SessionStatusFailed               SessionStatus = "FAILED"
)

// Terminal reports whether the status is a final state. Sessions in a
// terminal state are never synced again.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed
}

// NeedsAttention reports whether the remote agent is blocked waiting on
// human input.
func (s SessionStatus) NeedsAttention() bool {
	return s == SessionStatusAwaitingPlanApproval || s == SessionStatusAwaitingUserFeedback
}

type SessionOrigin string

const (
	SessionOriginInternal SessionOrigin = "INTERNAL"
	SessionOriginExternal SessionOrigin = "EXTERNAL"
)

type Session struct {
	ID             string // remote session id
	Title          string
	Status         SessionStatus
	Origin         SessionOrigin
	OriginalPrompt string
	Source         string
	Context        json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// RemoteName returns the fully-qualified remote resource name.
func (s *Session) RemoteName() string {
	return "sessions/" + s.ID
}

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context, limit int) ([]*Session, error)
	ListActive(ctx context.Context) ([]*Session, error)
	ListByStatus(ctx context.Context, status SessionStatus) ([]*Session, error)
	UpdateStatus(ctx context.Context, id string, status SessionStatus, completedAt *time.Time) error
}
