package v1

import (
	"context"
	"time"

	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/reconcile"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store and *sqlite.Store satisfy this interface.
type DataStore interface {
	Sessions() domain.SessionRepository
	Activities() domain.ActivityRepository
	Interactions() domain.InteractionRepository
}

// Reconciler abstracts the scheduler for handler testing. The API only
// triggers passes and reads summaries; it never mutates mirrored state
// itself.
type Reconciler interface {
	Run(ctx context.Context) reconcile.Result
	LastResult() (reconcile.Result, bool)
}

// FreshnessReader reads the last-sync timestamp recorded by the scheduler.
// *redis.Client satisfies this interface; a nil reader means freshness is
// unknown.
type FreshnessReader interface {
	LastSync(ctx context.Context) (time.Time, bool, error)
}
