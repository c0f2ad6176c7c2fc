package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/vigil/internal/domain"
)

type ListSessionsInput struct {
	Status string `query:"status" doc:"Filter by session status (e.g. IN_PROGRESS)"`
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Maximum sessions returned"`
}

type ListSessionsOutput struct {
	Body []*domain.Session
}

type GetSessionInput struct {
	ID string `path:"id" doc:"Remote session ID"`
}

type GetSessionOutput struct {
	Body *domain.Session
}

type ListSessionActivitiesInput struct {
	ID    string `path:"id" doc:"Remote session ID"`
	Limit int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Maximum activities returned"`
}

type ListSessionActivitiesOutput struct {
	Body []*domain.Activity
}

type ListSessionInteractionsInput struct {
	ID    string `path:"id" doc:"Remote session ID"`
	Limit int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Maximum interactions returned"`
}

type ListSessionInteractionsOutput struct {
	Body []*domain.Interaction
}

// RegisterSessionRoutes wires the read-only mirror endpoints. Everything
// here serves the local store; remote state is never fetched on request,
// which is what keeps dashboard load off the remote call budget.
func RegisterSessionRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/sessions",
		Summary:     "List mirrored sessions",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error) {
		if input.Status != "" {
			sessions, err := store.Sessions().ListByStatus(ctx, domain.SessionStatus(input.Status))
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to list sessions", err)
			}
			if len(sessions) > input.Limit {
				sessions = sessions[:input.Limit]
			}
			return &ListSessionsOutput{Body: sessions}, nil
		}

		sessions, err := store.Sessions().List(ctx, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list sessions", err)
		}

		return &ListSessionsOutput{Body: sessions}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}",
		Summary:     "Get one mirrored session",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error) {
		session, err := store.Sessions().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("session not found")
			}
			return nil, huma.Error500InternalServerError("failed to load session", err)
		}

		return &GetSessionOutput{Body: session}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-session-activities",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}/activities",
		Summary:     "List mirrored activities for a session",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *ListSessionActivitiesInput) (*ListSessionActivitiesOutput, error) {
		if _, err := store.Sessions().GetByID(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("session not found")
			}
			return nil, huma.Error500InternalServerError("failed to load session", err)
		}

		activities, err := store.Activities().ListBySession(ctx, input.ID, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list activities", err)
		}

		return &ListSessionActivitiesOutput{Body: activities}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-session-interactions",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}/interactions",
		Summary:     "List intervention attempts for a session",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *ListSessionInteractionsInput) (*ListSessionInteractionsOutput, error) {
		if _, err := store.Sessions().GetByID(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("session not found")
			}
			return nil, huma.Error500InternalServerError("failed to load session", err)
		}

		interactions, err := store.Interactions().ListBySession(ctx, input.ID, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list interactions", err)
		}

		return &ListSessionInteractionsOutput{Body: interactions}, nil
	})
}
