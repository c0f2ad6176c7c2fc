package intervene

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/reconcile"
	"github.com/gosuda/vigil/internal/remote"
)

// Advisor drafts a reply for a stuck session's outstanding question.
type Advisor interface {
	Generate(ctx context.Context, question string, sctx domain.SessionContext) (string, error)
}

// Notifier announces dispatch outcomes. All methods are best-effort.
type Notifier interface {
	InterventionSent(ctx context.Context, session *domain.Session, question, reply string)
	InterventionFailed(ctx context.Context, session *domain.Session, question, errText string)
	PlanApproved(ctx context.Context, session *domain.Session)
}

// Dispatcher answers sessions blocked on user feedback and, when enabled,
// approves pending plans. A session is never sent two automated replies to
// the same outstanding question: before each send the store is checked for
// a prior reply carrying the exact question text, and every attempt writes
// an interaction record whether or not the send succeeded.
type Dispatcher struct {
	remote       remote.SessionService
	sessions     domain.SessionRepository
	interactions domain.InteractionRepository
	pageSize     int

	advisor     Advisor  // nil: always use the local fallback
	notifier    Notifier // nil: no announcements
	autoApprove bool
}

// Compile-time interface check.
var _ reconcile.Interventioner = (*Dispatcher)(nil) //nolint:gochecknoglobals // compile-time check

type DispatcherOption func(*Dispatcher)

// WithAdvisor consults the given advisor before falling back to the local
// reply rules.
func WithAdvisor(a Advisor) DispatcherOption {
	return func(d *Dispatcher) { d.advisor = a }
}

// WithNotifier announces every dispatch outcome through n.
func WithNotifier(n Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.notifier = n }
}

// WithAutoApproval also approves sessions waiting on plan approval.
func WithAutoApproval() DispatcherOption {
	return func(d *Dispatcher) { d.autoApprove = true }
}

func NewDispatcher(
	svc remote.SessionService,
	sessions domain.SessionRepository,
	interactions domain.InteractionRepository,
	pageSize int,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		remote:       svc,
		sessions:     sessions,
		interactions: interactions,
		pageSize:     pageSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Run processes every stuck session sequentially and returns the number of
// interventions attempted (sends and plan approvals, successful or not).
// Per-session failures are logged and skipped; the error is non-nil only
// when a store listing fails.
func (d *Dispatcher) Run(ctx context.Context) (int, error) {
	attempted := 0

	stuck, err := d.sessions.ListByStatus(ctx, domain.SessionStatusAwaitingUserFeedback)
	if err != nil {
		return 0, fmt.Errorf("intervene.Dispatcher.Run: list stuck sessions: %w", err)
	}

	for _, sess := range stuck {
		tried, err := d.dispatchReply(ctx, sess)
		if err != nil {
			log.Error().
				Err(err).
				Str("session_id", sess.ID).
				Str("kind", string(remote.Classify(err))).
				Msg("intervention dispatch failed")
		}
		if tried {
			attempted++
		}
	}

	if d.autoApprove {
		pending, err := d.sessions.ListByStatus(ctx, domain.SessionStatusAwaitingPlanApproval)
		if err != nil {
			return attempted, fmt.Errorf("intervene.Dispatcher.Run: list approval sessions: %w", err)
		}

		for _, sess := range pending {
			tried, err := d.approvePlan(ctx, sess)
			if err != nil {
				log.Error().
					Err(err).
					Str("session_id", sess.ID).
					Str("kind", string(remote.Classify(err))).
					Msg("plan approval failed")
			}
			if tried {
				attempted++
			}
		}
	}

	return attempted, nil
}

// dispatchReply answers one stuck session. Returns true when a send was
// actually attempted (and therefore recorded), false on the skip paths.
func (d *Dispatcher) dispatchReply(ctx context.Context, sess *domain.Session) (bool, error) {
	activities, err := d.remote.ListActivities(ctx, sess.ID, d.pageSize)
	if err != nil {
		return false, fmt.Errorf("list activities: %w", err)
	}

	question := latestAgentMessage(activities)
	if question == "" {
		return false, nil // nothing to answer
	}

	// Loop prevention. An existing reply to this exact question, from any
	// earlier pass, means the question is already handled.
	_, err = d.interactions.FindAgentReply(ctx, sess.ID, question)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("find prior reply: %w", err)
	}

	sctx := domain.ParseSessionContext(sess.Context)
	reply := d.composeReply(ctx, sess.ID, question, sctx)

	sendErr := d.remote.SendMessage(ctx, sess.ID, reply)

	// Record the attempt unconditionally; future loop-prevention checks
	// must see it, including failed sends.
	rec := &domain.Interaction{
		ID:            uuid.New(),
		SessionID:     sess.ID,
		JulesMessage:  question,
		AgentResponse: reply,
		CreatedAt:     time.Now(),
	}
	if sendErr == nil {
		rec.Type = domain.InteractionAgentReply
		rec.Success = true
	} else {
		rec.Type = domain.InteractionError
		rec.Success = false
		rec.Error = sendErr.Error()
	}
	if createErr := d.interactions.Create(ctx, rec); createErr != nil {
		return true, fmt.Errorf("record interaction: %w", createErr)
	}

	if sendErr != nil {
		if d.notifier != nil {
			d.notifier.InterventionFailed(ctx, sess, question, sendErr.Error())
		}
		return true, fmt.Errorf("send reply: %w", sendErr)
	}

	log.Info().
		Str("session_id", sess.ID).
		Str("question", question).
		Msg("intervention sent")
	if d.notifier != nil {
		d.notifier.InterventionSent(ctx, sess, question, reply)
	}

	return true, nil
}

// approvePlan approves one pending plan and records the attempt.
func (d *Dispatcher) approvePlan(ctx context.Context, sess *domain.Session) (bool, error) {
	approveErr := d.remote.ApprovePlan(ctx, sess.ID)

	rec := &domain.Interaction{
		ID:            uuid.New(),
		SessionID:     sess.ID,
		Type:          domain.InteractionAutoApproval,
		AgentResponse: "plan approved",
		Success:       approveErr == nil,
		CreatedAt:     time.Now(),
	}
	if approveErr != nil {
		rec.Error = approveErr.Error()
	}
	if createErr := d.interactions.Create(ctx, rec); createErr != nil {
		return true, fmt.Errorf("record approval: %w", createErr)
	}

	if approveErr != nil {
		return true, fmt.Errorf("approve plan: %w", approveErr)
	}

	log.Info().Str("session_id", sess.ID).Msg("plan auto-approved")
	if d.notifier != nil {
		d.notifier.PlanApproved(ctx, sess)
	}

	return true, nil
}

// composeReply consults the advisor when configured and falls back to the
// deterministic local rules when it is absent, fails, or returns nothing.
func (d *Dispatcher) composeReply(ctx context.Context, sessionID, question string, sctx domain.SessionContext) string {
	if d.advisor != nil {
		reply, err := d.advisor.Generate(ctx, question, sctx)
		if err == nil && reply != "" {
			return reply
		}
		if err != nil {
			log.Warn().
				Err(err).
				Str("session_id", sessionID).
				Msg("advisor unreachable, using fallback advice")
		}
	}

	return FallbackAdvice(question, sctx)
}

// latestAgentMessage picks the newest agent-authored message out of an
// activity page. Pages arrive newest first.
func latestAgentMessage(activities []remote.Activity) string {
	for _, a := range activities {
		if a.AgentMessage != "" {
			return a.AgentMessage
		}
	}
	return ""
}
