package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/remote"
)

const (
	remoteAgentName    = "jules"
	actionRemoteUpdate = "remote_update"
)

// Mirror copies a session's remote activity feed into the local store.
// Each remote activity is inserted at most once, keyed by the last path
// segment of its resource name; repeated passes over the same feed are
// no-ops. Only the most recent page is fetched per pass, so activities that
// scroll past the window between passes are never mirrored. That is an
// accepted coverage trade-off of the call budget.
type Mirror struct {
	remote     remote.SessionService
	activities domain.ActivityRepository
	pageSize   int
}

func NewMirror(svc remote.SessionService, activities domain.ActivityRepository, pageSize int) *Mirror {
	return &Mirror{remote: svc, activities: activities, pageSize: pageSize}
}

// Mirror fetches the latest page of remote activities for the session and
// inserts the ones not seen before.
func (m *Mirror) Mirror(ctx context.Context, sessionID string) error {
	items, err := m.remote.ListActivities(ctx, sessionID, m.pageSize)
	if err != nil {
		return fmt.Errorf("reconcile.Mirror.Mirror: list activities: %w", err)
	}

	for _, item := range items {
		key := remote.ActivityKey(item.Name)
		if key == "" {
			continue
		}

		_, err := m.activities.FindByRemoteID(ctx, sessionID, key)
		if err == nil {
			continue // already mirrored
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("reconcile.Mirror.Mirror: find activity %s: %w", key, err)
		}

		createdAt := item.CreateTime
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		activity := &domain.Activity{
			ID:        uuid.New(),
			SessionID: sessionID,
			Agent:     remoteAgentName,
			Action:    actionRemoteUpdate,
			Result:    item.Description,
			Success:   true,
			Metadata: map[string]any{
				domain.MetaRemoteID:     key,
				domain.MetaResourceName: item.Name,
				domain.MetaSource:       domain.SourceRemoteSync,
				domain.MetaRaw:          item.Raw,
			},
			CreatedAt: createdAt,
		}

		if err := m.activities.Create(ctx, activity); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return fmt.Errorf("reconcile.Mirror.Mirror: create activity %s: %w", key, err)
		}
	}

	return nil
}
