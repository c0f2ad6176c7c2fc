package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/remote"
)

// Syncer refreshes the status of every non-terminal mirrored session with a
// single-entity remote fetch each, then mirrors that session's activities.
// Terminal sessions are excluded up front; the remote call volume of a pass
// scales with the number of active sessions, not total history.
type Syncer struct {
	remote   remote.SessionService
	sessions domain.SessionRepository
	mirror   *Mirror
}

func NewSyncer(svc remote.SessionService, sessions domain.SessionRepository, mirror *Mirror) *Syncer {
	return &Syncer{remote: svc, sessions: sessions, mirror: mirror}
}

// SyncActive processes all active sessions sequentially. A failure on one
// session is logged and skipped; the rest of the batch still runs. Returns
// the number of sessions synced without error. The error is non-nil only
// when the active-session query itself fails.
func (s *Syncer) SyncActive(ctx context.Context) (int, error) {
	active, err := s.sessions.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile.Syncer.SyncActive: list active: %w", err)
	}

	synced := 0
	for _, sess := range active {
		if err := s.syncOne(ctx, sess); err != nil {
			log.Error().
				Err(err).
				Str("session_id", sess.ID).
				Str("kind", string(remote.Classify(err))).
				Msg("session sync failed")
			continue
		}
		synced++
	}

	return synced, nil
}

func (s *Syncer) syncOne(ctx context.Context, sess *domain.Session) error {
	rs, err := s.remote.GetSession(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}

	newStatus := domain.SessionStatus(rs.State)
	if newStatus != "" && newStatus != sess.Status {
		var completedAt *time.Time
		if newStatus.Terminal() {
			now := time.Now()
			completedAt = &now
		}
		if err := s.sessions.UpdateStatus(ctx, sess.ID, newStatus, completedAt); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		log.Info().
			Str("session_id", sess.ID).
			Str("from", string(sess.Status)).
			Str("to", string(newStatus)).
			Msg("session status changed")
	}

	// Mirror regardless of whether the status moved; activities accrue in
	// every state.
	return s.mirror.Mirror(ctx, sess.ID)
}
