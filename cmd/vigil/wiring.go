package main

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/vigil/internal/advisor"
	v1 "github.com/gosuda/vigil/internal/api/v1"
	"github.com/gosuda/vigil/internal/config"
	"github.com/gosuda/vigil/internal/intervene"
	"github.com/gosuda/vigil/internal/notify"
	"github.com/gosuda/vigil/internal/reconcile"
	"github.com/gosuda/vigil/internal/remote"
	"github.com/gosuda/vigil/internal/remote/jules"
	"github.com/gosuda/vigil/internal/store/postgres"
	redisstore "github.com/gosuda/vigil/internal/store/redis"
	"github.com/gosuda/vigil/internal/store/sqlite"
)

// dataStore is what every backend-agnostic caller needs from a store.
type dataStore interface {
	v1.DataStore
}

// openStore connects to the configured durable store backend. The returned
// closer is safe to call exactly once.
func openStore(ctx context.Context, cfg *config.Config) (dataStore, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if cfg.Store.Database.MaxConns > math.MaxInt32 {
			return nil, nil, fmt.Errorf("db max_conns %d out of int32 range", cfg.Store.Database.MaxConns)
		}
		store, err := postgres.New(ctx, cfg.Store.Database.DSN(), int32(cfg.Store.Database.MaxConns)) //nolint:gosec // bounds checked above
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := sqlite.New(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}

// newRemoteClient builds the rate-limited remote session API client.
func newRemoteClient(cfg *config.Config) remote.SessionService {
	return jules.New(
		cfg.Remote.BaseURL,
		cfg.Remote.APIKey,
		jules.WithRateLimit(cfg.Remote.RatePerSec, cfg.Remote.RateBurst),
	)
}

// newNotifier builds the Slack notifier when a bot token is configured and
// the silent noop otherwise.
func newNotifier(cfg *config.Config) intervene.Notifier {
	if cfg.Slack.BotToken == "" {
		return notify.Noop{}
	}
	log.Info().Str("channel", cfg.Slack.Channel).Msg("slack notifications enabled")
	return notify.NewSlack(slacklib.New(cfg.Slack.BotToken), cfg.Slack.Channel)
}

// newScheduler composes the full reconciliation pipeline from configuration.
// pubsub may be nil.
func newScheduler(cfg *config.Config, svc remote.SessionService, store dataStore, pubsub *redisstore.Client) *reconcile.Scheduler {
	discovery := reconcile.NewDiscovery(svc, store.Sessions(), cfg.Reconcile.DiscoveryPageSize)
	mirror := reconcile.NewMirror(svc, store.Activities(), cfg.Reconcile.ActivityPageSize)
	syncer := reconcile.NewSyncer(svc, store.Sessions(), mirror)

	opts := make([]reconcile.SchedulerOption, 0, 3)

	if cfg.Intervene.Enabled {
		dispatcherOpts := []intervene.DispatcherOption{
			intervene.WithNotifier(newNotifier(cfg)),
		}
		if cfg.Intervene.DelegateURL != "" {
			dispatcherOpts = append(dispatcherOpts,
				intervene.WithAdvisor(advisor.New(cfg.Intervene.DelegateURL, cfg.Intervene.DelegateTimeout)))
		}
		if cfg.Intervene.AutoApprove {
			dispatcherOpts = append(dispatcherOpts, intervene.WithAutoApproval())
		}

		dispatcher := intervene.NewDispatcher(
			svc,
			store.Sessions(),
			store.Interactions(),
			cfg.Reconcile.ActivityPageSize,
			dispatcherOpts...,
		)
		opts = append(opts, reconcile.WithInterventions(dispatcher))
	}

	if pubsub != nil {
		opts = append(opts,
			reconcile.WithFreshnessCache(pubsub),
			reconcile.WithEvents(pubsub, redisstore.ChannelReconcile),
		)
	}

	return reconcile.NewScheduler(discovery, syncer, cfg.Reconcile.Interval, opts...)
}
