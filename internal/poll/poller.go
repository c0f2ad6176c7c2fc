package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/remote"
)

// Outcome classifies how a wait ended.
type Outcome string

const (
	OutcomeCompleted  Outcome = "COMPLETED"
	OutcomeFailed     Outcome = "FAILED"
	OutcomeNeedsInput Outcome = "NEEDS_INPUT"
	OutcomeTimeout    Outcome = "TIMEOUT"
)

// Result is the final word on one waited session. Session is the last remote
// snapshot and may be nil when the final fetch of a timed-out wait fails.
// Message carries the agent's outstanding question on NEEDS_INPUT.
type Result struct {
	Outcome Outcome
	Session *remote.Session
	Message string
}

// Default tuning. The approval retry delay is deliberately much shorter than
// the poll interval: plan approval is expected to resolve within seconds.
const (
	DefaultInterval           = 30 * time.Second
	DefaultApprovalRetryDelay = 2 * time.Second
	DefaultTimeout            = 10 * time.Minute
)

// Generic prompt shown when a blocked session has no extractable agent
// message in its latest activity.
const genericFeedbackMessage = "agent is requesting feedback"

// TransitionFunc observes every remote state change seen during a wait.
type TransitionFunc func(sessionID string, from, to domain.SessionStatus)

// Config tunes one Poller. Zero durations fall back to the defaults.
type Config struct {
	Interval           time.Duration
	ApprovalRetryDelay time.Duration
	Timeout            time.Duration
	AutoApprove        bool
	OnTransition       TransitionFunc
}

// Poller blocks on a single remote session until it reaches a decision
// point: terminal state, input needed, or wall-clock timeout. It talks only
// to the remote service; the batch reconciler owns the local mirror, and the
// two converge through the shared store and remote API rather than through
// any in-memory state.
type Poller struct {
	remote remote.SessionService
	cfg    Config
}

func New(svc remote.SessionService, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ApprovalRetryDelay <= 0 {
		cfg.ApprovalRetryDelay = DefaultApprovalRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Poller{remote: svc, cfg: cfg}
}

// Wait polls the session until it completes, fails, needs input, or the
// timeout elapses. The deadline is checked before each poll iteration, never
// mid-flight. Transient remote errors are retried on the next tick;
// authentication errors abort the wait, since no amount of polling fixes
// expired credentials.
func (p *Poller) Wait(ctx context.Context, sessionID string) (Result, error) {
	deadline := time.Now().Add(p.cfg.Timeout)

	var last domain.SessionStatus
	approved := false

	for {
		if time.Now().After(deadline) {
			return p.timedOut(ctx, sessionID), nil
		}
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("poll.Poller.Wait: %w", err)
		}

		rs, err := p.remote.GetSession(ctx, sessionID)
		if err != nil {
			if remote.Classify(err) == remote.KindAuthentication {
				return Result{}, fmt.Errorf("poll.Poller.Wait: %w", err)
			}
			log.Warn().
				Err(err).
				Str("session_id", sessionID).
				Str("kind", string(remote.Classify(err))).
				Msg("poll fetch failed, retrying")
			if err := p.sleep(ctx, p.cfg.Interval); err != nil {
				return Result{}, fmt.Errorf("poll.Poller.Wait: %w", err)
			}
			continue
		}

		status := domain.SessionStatus(rs.State)
		if status != last {
			if p.cfg.OnTransition != nil {
				p.cfg.OnTransition(sessionID, last, status)
			}
			last = status
		}

		switch status {
		case domain.SessionStatusCompleted:
			return Result{Outcome: OutcomeCompleted, Session: rs}, nil

		case domain.SessionStatusFailed:
			return Result{Outcome: OutcomeFailed, Session: rs}, nil

		case domain.SessionStatusAwaitingPlanApproval:
			if !p.cfg.AutoApprove {
				return Result{
					Outcome: OutcomeNeedsInput,
					Session: rs,
					Message: "plan is awaiting approval",
				}, nil
			}
			if !approved {
				if err := p.remote.ApprovePlan(ctx, sessionID); err != nil {
					if remote.Classify(err) == remote.KindAuthentication {
						return Result{}, fmt.Errorf("poll.Poller.Wait: %w", err)
					}
					log.Warn().
						Err(err).
						Str("session_id", sessionID).
						Msg("plan approval failed, retrying")
				} else {
					approved = true
					log.Info().Str("session_id", sessionID).Msg("plan auto-approved")
				}
			}
			// Approval resolves quickly; re-poll well before the normal
			// interval.
			if err := p.sleep(ctx, p.cfg.ApprovalRetryDelay); err != nil {
				return Result{}, fmt.Errorf("poll.Poller.Wait: %w", err)
			}

		case domain.SessionStatusAwaitingUserFeedback, domain.SessionStatusPaused:
			return Result{
				Outcome: OutcomeNeedsInput,
				Session: rs,
				Message: p.feedbackMessage(ctx, sessionID),
			}, nil

		default: // QUEUED, PLANNING, IN_PROGRESS, and states we don't know
			if err := p.sleep(ctx, p.cfg.Interval); err != nil {
				return Result{}, fmt.Errorf("poll.Poller.Wait: %w", err)
			}
		}
	}
}

// timedOut performs the final status fetch of an expired wait. The snapshot
// is best-effort; a failed fetch yields a nil Session.
func (p *Poller) timedOut(ctx context.Context, sessionID string) Result {
	rs, err := p.remote.GetSession(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("final fetch after timeout failed")
		return Result{Outcome: OutcomeTimeout}
	}

	return Result{Outcome: OutcomeTimeout, Session: rs}
}

// feedbackMessage extracts the agent's outstanding question from the most
// recent activity, falling back to a generic prompt.
func (p *Poller) feedbackMessage(ctx context.Context, sessionID string) string {
	activities, err := p.remote.ListActivities(ctx, sessionID, 1)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("feedback activity fetch failed")
		return genericFeedbackMessage
	}
	if len(activities) > 0 && activities[0].AgentMessage != "" {
		return activities[0].AgentMessage
	}

	return genericFeedbackMessage
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
