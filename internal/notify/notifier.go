// Package notify announces intervention outcomes to humans. Announcements
// are strictly best-effort: a failed post is logged and forgotten, never
// surfaced to the reconciler.
package notify

import (
	"context"

	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/intervene"
)

// Noop is the notifier used when no messaging backend is configured.
type Noop struct{}

// Compile-time interface check.
var _ intervene.Notifier = Noop{} //nolint:gochecknoglobals // compile-time check

func (Noop) InterventionSent(context.Context, *domain.Session, string, string)   {}
func (Noop) InterventionFailed(context.Context, *domain.Session, string, string) {}
func (Noop) PlanApproved(context.Context, *domain.Session)                       {}
