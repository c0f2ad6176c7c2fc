package reconcile

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Interventioner dispatches automated replies to stuck sessions. Implemented
// by the intervene package; the scheduler only sees this surface.
type Interventioner interface {
	Run(ctx context.Context) (int, error)
}

// FreshnessCache records when the last reconcile pass finished.
type FreshnessCache interface {
	PutLastSync(ctx context.Context, t time.Time) error
}

// PubSubPublisher abstracts the Redis pub/sub publish operation.
type PubSubPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Result summarizes one reconciliation pass. Phase errors are recorded, not
// propagated; a pass always runs every phase it can.
type Result struct {
	Discovered    int
	Synced        int
	Interventions int
	DiscoverErr   error
	SyncErr       error
	InterveneErr  error
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Failed reports whether any phase of the pass errored.
func (r Result) Failed() bool {
	return r.DiscoverErr != nil || r.SyncErr != nil || r.InterveneErr != nil
}

// Scheduler composes the reconciliation phases (discover, sync, intervene)
// and runs them as one pass, once or on a fixed cadence.
type Scheduler struct {
	discovery *Discovery
	syncer    *Syncer
	interval  time.Duration

	interventions Interventioner
	cache         FreshnessCache
	pubsub        PubSubPublisher
	eventChannel  string

	mu   sync.Mutex
	last *Result
}

type SchedulerOption func(*Scheduler)

// WithInterventions enables the stuck-session dispatch phase.
func WithInterventions(i Interventioner) SchedulerOption {
	return func(s *Scheduler) { s.interventions = i }
}

// WithFreshnessCache records pass completion times in the given cache.
func WithFreshnessCache(c FreshnessCache) SchedulerOption {
	return func(s *Scheduler) { s.cache = c }
}

// WithEvents publishes a pass summary to the given pub/sub channel after
// every pass.
func WithEvents(pub PubSubPublisher, channel string) SchedulerOption {
	return func(s *Scheduler) {
		s.pubsub = pub
		s.eventChannel = channel
	}
}

func NewScheduler(discovery *Discovery, syncer *Syncer, interval time.Duration, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		discovery: discovery,
		syncer:    syncer,
		interval:  interval,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run executes one full reconciliation pass. Each phase's error is logged
// and recorded in the Result; a failing phase never stops the later ones.
func (s *Scheduler) Run(ctx context.Context) Result {
	res := Result{StartedAt: time.Now()}

	res.Discovered, res.DiscoverErr = s.discovery.Discover(ctx)
	if res.DiscoverErr != nil {
		log.Error().Err(res.DiscoverErr).Msg("reconcile.Scheduler.Run: discovery failed")
	}

	res.Synced, res.SyncErr = s.syncer.SyncActive(ctx)
	if res.SyncErr != nil {
		log.Error().Err(res.SyncErr).Msg("reconcile.Scheduler.Run: sync failed")
	}

	if s.interventions != nil {
		res.Interventions, res.InterveneErr = s.interventions.Run(ctx)
		if res.InterveneErr != nil {
			log.Error().Err(res.InterveneErr).Msg("reconcile.Scheduler.Run: interventions failed")
		}
	}

	res.FinishedAt = time.Now()

	s.mu.Lock()
	s.last = &res
	s.mu.Unlock()

	s.recordPass(ctx, res)

	log.Info().
		Int("discovered", res.Discovered).
		Int("synced", res.Synced).
		Int("interventions", res.Interventions).
		Bool("failed", res.Failed()).
		Dur("took", res.FinishedAt.Sub(res.StartedAt)).
		Msg("reconcile pass finished")

	return res
}

// RunLoop runs an immediate pass, then one per interval. It blocks until
// the context is cancelled.
func (s *Scheduler) RunLoop(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("reconcile.Scheduler: loop started")

	s.Run(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reconcile.Scheduler: loop stopped")
			return
		case <-ticker.C:
			s.Run(ctx)
		}
	}
}

// LastResult returns the most recent pass summary, if any pass has run.
func (s *Scheduler) LastResult() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

type passEvent struct {
	Type          string    `json:"type"`
	Discovered    int       `json:"discovered"`
	Synced        int       `json:"synced"`
	Interventions int       `json:"interventions"`
	Failed        bool      `json:"failed"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

// recordPass updates the freshness cache and broadcasts the pass summary.
// Both are best-effort; mirror state is already durable by this point.
func (s *Scheduler) recordPass(ctx context.Context, res Result) {
	if s.cache != nil {
		if err := s.cache.PutLastSync(ctx, res.FinishedAt); err != nil {
			log.Error().Err(err).Msg("reconcile.Scheduler: record last sync failed")
		}
	}

	if s.pubsub == nil {
		return
	}

	payload, err := json.Marshal(passEvent{
		Type:          "reconcile_pass",
		Discovered:    res.Discovered,
		Synced:        res.Synced,
		Interventions: res.Interventions,
		Failed:        res.Failed(),
		StartedAt:     res.StartedAt,
		FinishedAt:    res.FinishedAt,
	})
	if err != nil {
		return
	}
	if pubErr := s.pubsub.Publish(ctx, s.eventChannel, payload); pubErr != nil {
		log.Error().Err(pubErr).Str("channel", s.eventChannel).Msg("reconcile.Scheduler: publish pass event failed")
	}
}
