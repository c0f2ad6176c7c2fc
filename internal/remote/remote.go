package remote

import (
	"context"
	"strings"
	"time"
)

// Session is the remote service's view of a coding session.
type Session struct {
	ID         string
	Name       string // sessions/{id}
	Title      string
	State      string
	URL        string
	CreateTime time.Time
	UpdateTime time.Time
}

// Activity is one entry of a session's remote activity feed. AgentMessage is
// non-empty when the entry is a message the agent addressed to the user.
type Activity struct {
	Name         string // sessions/{id}/activities/{id}
	Description  string
	AgentMessage string
	CreateTime   time.Time
	Raw          map[string]any
}

// ActivityKey extracts the activity's own id from its resource name. The id
// is the idempotency key for mirroring.
func ActivityKey(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// SessionService is the subset of the remote session API the reconciler
// consumes. Implementations are expected to enforce the remote call budget.
type SessionService interface {
	ListSessions(ctx context.Context, pageSize int) ([]Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	ListActivities(ctx context.Context, sessionID string, pageSize int) ([]Activity, error)
	SendMessage(ctx context.Context, sessionID, text string) error
	ApprovePlan(ctx context.Context, sessionID string) error
}
