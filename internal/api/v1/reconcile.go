package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/vigil/internal/reconcile"
)

// PassSummary is the wire shape of one reconciliation pass result.
type PassSummary struct {
	Discovered    int       `json:"discovered" doc:"Newly adopted sessions"`
	Synced        int       `json:"synced" doc:"Sessions refreshed without error"`
	Interventions int       `json:"interventions" doc:"Intervention attempts (replies and approvals)"`
	Failed        bool      `json:"failed" doc:"Whether any phase errored"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

func toPassSummary(res reconcile.Result) PassSummary {
	return PassSummary{
		Discovered:    res.Discovered,
		Synced:        res.Synced,
		Interventions: res.Interventions,
		Failed:        res.Failed(),
		StartedAt:     res.StartedAt,
		FinishedAt:    res.FinishedAt,
	}
}

type ReconcileStatusOutput struct {
	Body struct {
		LastSync       *time.Time   `json:"lastSync,omitempty" doc:"Finish time of the last recorded pass; absent when unknown"`
		LastPass       *PassSummary `json:"lastPass,omitempty" doc:"Summary of the most recent pass in this process"`
		ActiveSessions int          `json:"activeSessions" doc:"Mirrored sessions in a non-terminal state"`
	}
}

type TriggerReconcileOutput struct {
	Body PassSummary
}

// RegisterReconcileRoutes wires the freshness endpoint and the manual
// trigger. freshness may be nil when Redis is not configured.
func RegisterReconcileRoutes(api huma.API, store DataStore, reconciler Reconciler, freshness FreshnessReader) {
	huma.Register(api, huma.Operation{
		OperationID: "reconcile-status",
		Method:      http.MethodGet,
		Path:        "/reconcile/status",
		Summary:     "Reconciliation freshness and activity",
		Tags:        []string{"Reconcile"},
	}, func(ctx context.Context, _ *struct{}) (*ReconcileStatusOutput, error) {
		out := &ReconcileStatusOutput{}

		active, err := store.Sessions().ListActive(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count active sessions", err)
		}
		out.Body.ActiveSessions = len(active)

		if res, ok := reconciler.LastResult(); ok {
			summary := toPassSummary(res)
			out.Body.LastPass = &summary
		}

		if freshness != nil {
			// Best-effort; staleness display must not break on a Redis
			// hiccup.
			if t, ok, err := freshness.LastSync(ctx); err == nil && ok {
				out.Body.LastSync = &t
			}
		}

		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "trigger-reconcile",
		Method:      http.MethodPost,
		Path:        "/reconcile/run",
		Summary:     "Run one reconciliation pass now",
		Tags:        []string{"Reconcile"},
	}, func(ctx context.Context, _ *struct{}) (*TriggerReconcileOutput, error) {
		res := reconciler.Run(ctx)
		return &TriggerReconcileOutput{Body: toPassSummary(res)}, nil
	})
}
