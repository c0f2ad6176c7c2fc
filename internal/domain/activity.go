package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Metadata keys written by the remote activity mirror. MetaRemoteID is the
// idempotency key: one local activity per remote activity id.
const (
	MetaRemoteID     = "activity_id"
	MetaResourceName = "activity_name"
	MetaSource       = "source"
	MetaRaw          = "raw"
)

const SourceRemoteSync = "remote_sync"

type Activity struct {
	ID        uuid.UUID
	SessionID string
	Agent     string
	Action    string
	Result    string
	Success   bool
	Metadata  map[string]any
	CreatedAt time.Time
}

type ActivityRepository interface {
	Create(ctx context.Context, a *Activity) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*Activity, error)
	// FindByRemoteID looks an activity up by its MetaRemoteID metadata value.
	// Returns ErrNotFound when the remote activity has not been mirrored yet.
	FindByRemoteID(ctx context.Context, sessionID, remoteID string) (*Activity, error)
}
