package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gosuda/vigil/internal/config"
	redisstore "github.com/gosuda/vigil/internal/store/redis"
)

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run a single reconciliation pass and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReconcile(cmd.Context())
		},
	}
}

func runReconcile(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var pubsub *redisstore.Client
	if cfg.Redis.Enabled() {
		pubsub, err = redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer func() { _ = pubsub.Close() }()
	}

	scheduler := newScheduler(cfg, newRemoteClient(cfg), store, pubsub)

	// Phase errors are recorded in the result and already logged; a partial
	// pass is still a pass, so the exit code stays zero.
	res := scheduler.Run(ctx)

	fmt.Printf("discovered=%d synced=%d interventions=%d failed=%t took=%s\n",
		res.Discovered, res.Synced, res.Interventions, res.Failed(),
		res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))

	return nil
}
