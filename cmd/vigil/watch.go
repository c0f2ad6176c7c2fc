package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/vigil/internal/config"
	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/poll"
)

func newWatchCmd() *cobra.Command {
	var (
		interval     time.Duration
		timeout      time.Duration
		approvePlans bool
	)

	cmd := &cobra.Command{
		Use:   "watch <session-id>",
		Short: "Block on one remote session until it finishes or needs input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), args[0], interval, timeout, approvePlans)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (default from VIGIL_POLL_INTERVAL)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Wall-clock wait limit (default from VIGIL_POLL_TIMEOUT)")
	cmd.Flags().BoolVar(&approvePlans, "approve-plans", false, "Approve the plan when the session asks for it")

	return cmd
}

func runWatch(ctx context.Context, sessionID string, interval, timeout time.Duration, approvePlans bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags win over environment tuning; zero falls through to config.
	if interval <= 0 {
		interval = cfg.Poll.Interval
	}
	if timeout <= 0 {
		timeout = cfg.Poll.Timeout
	}

	poller := poll.New(newRemoteClient(cfg), poll.Config{
		Interval:           interval,
		ApprovalRetryDelay: cfg.Poll.ApprovalRetryDelay,
		Timeout:            timeout,
		AutoApprove:        approvePlans,
		OnTransition: func(id string, from, to domain.SessionStatus) {
			log.Info().
				Str("session_id", id).
				Str("from", string(from)).
				Str("to", string(to)).
				Msg("session state changed")
		},
	})

	res, err := poller.Wait(ctx, sessionID)
	if err != nil {
		return err
	}

	fmt.Printf("outcome=%s\n", res.Outcome)
	if res.Session != nil {
		fmt.Printf("state=%s title=%q\n", res.Session.State, res.Session.Title)
	}
	if res.Outcome == poll.OutcomeNeedsInput && res.Message != "" {
		fmt.Printf("message: %s\n", res.Message)
	}

	return nil
}
