package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/remote"
)

// ExternalPrompt is recorded as the original prompt of adopted sessions; the
// real prompt is not recoverable from the remote list call.
const ExternalPrompt = "(discovered external session)"

// Discovery adopts remote sessions the local store has never seen. Sessions
// created elsewhere (web UI, another tool) enter the mirror through here.
type Discovery struct {
	remote   remote.SessionService
	sessions domain.SessionRepository
	pageSize int
}

func NewDiscovery(svc remote.SessionService, sessions domain.SessionRepository, pageSize int) *Discovery {
	return &Discovery{remote: svc, sessions: sessions, pageSize: pageSize}
}

// Discover fetches one page of recent remote sessions and inserts records
// for the unknown ones. Returns the number of newly adopted sessions.
// A remote list failure aborts the whole call; discovery is all-or-nothing
// per invocation.
func (d *Discovery) Discover(ctx context.Context) (int, error) {
	remoteSessions, err := d.remote.ListSessions(ctx, d.pageSize)
	if err != nil {
		return 0, fmt.Errorf("reconcile.Discovery.Discover: list sessions: %w", err)
	}

	adopted := 0
	for _, rs := range remoteSessions {
		_, err := d.sessions.GetByID(ctx, rs.ID)
		if err == nil {
			continue // already mirrored
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return adopted, fmt.Errorf("reconcile.Discovery.Discover: get session %s: %w", rs.ID, err)
		}

		now := time.Now()
		createdAt := rs.CreateTime
		if createdAt.IsZero() {
			createdAt = now
		}
		updatedAt := rs.UpdateTime
		if updatedAt.IsZero() {
			updatedAt = now
		}

		session := &domain.Session{
			ID:             rs.ID,
			Title:          rs.Title,
			Status:         domain.SessionStatus(rs.State),
			Origin:         domain.SessionOriginExternal,
			OriginalPrompt: ExternalPrompt,
			CreatedAt:      createdAt,
			UpdatedAt:      updatedAt,
		}
		if session.Status.Terminal() {
			// Already finished before we ever saw it; the remote update time
			// is the best completion timestamp we have.
			session.CompletedAt = &updatedAt
		}

		if err := d.sessions.Create(ctx, session); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue // raced with another writer, record exists now
			}
			return adopted, fmt.Errorf("reconcile.Discovery.Discover: create session %s: %w", rs.ID, err)
		}

		adopted++
		log.Info().
			Str("session_id", rs.ID).
			Str("state", rs.State).
			Str("title", rs.Title).
			Msg("adopted external session")
	}

	return adopted, nil
}
