package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/intervene"
)

// SlackAPI abstracts the subset of the Slack client used by Slack.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// Slack posts intervention announcements to a single configured channel.
type Slack struct {
	api     SlackAPI
	channel string
}

// Compile-time interface check.
var _ intervene.Notifier = (*Slack)(nil) //nolint:gochecknoglobals // compile-time check

// NewSlack creates a Slack notifier posting to channel via api.
func NewSlack(api SlackAPI, channel string) *Slack {
	return &Slack{api: api, channel: channel}
}

func (s *Slack) InterventionSent(ctx context.Context, session *domain.Session, question, reply string) {
	text := fmt.Sprintf(
		":robot_face: Answered stuck session *%s* (%s)\n> %s\n\n%s",
		session.Title, session.ID, truncate(question, 300), truncate(reply, 600),
	)
	s.post(ctx, session.ID, text)
}

func (s *Slack) InterventionFailed(ctx context.Context, session *domain.Session, question, errText string) {
	text := fmt.Sprintf(
		":warning: Failed to answer stuck session *%s* (%s)\n> %s\n\nerror: %s",
		session.Title, session.ID, truncate(question, 300), truncate(errText, 300),
	)
	s.post(ctx, session.ID, text)
}

func (s *Slack) PlanApproved(ctx context.Context, session *domain.Session) {
	text := fmt.Sprintf(":white_check_mark: Auto-approved plan for session *%s* (%s)", session.Title, session.ID)
	s.post(ctx, session.ID, text)
}

func (s *Slack) post(ctx context.Context, sessionID, text string) {
	_, _, err := s.api.PostMessageContext(ctx, s.channel, slacklib.MsgOptionText(text, false))
	if err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID).
			Str("channel", s.channel).
			Msg("notify.Slack: post failed")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
