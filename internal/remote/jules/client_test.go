package jules_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/vigil/internal/remote"
	"github.com/gosuda/vigil/internal/remote/jules"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *jules.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return jules.New(srv.URL, "test-key", jules.WithRateLimit(1000, 1000))
}

func TestClient_ListSessions(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey, gotPageSize string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Goog-Api-Key")
		gotPageSize = r.URL.Query().Get("pageSize")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"sessions": [
				{
					"name": "sessions/abc123",
					"title": "Fix flaky test",
					"state": "IN_PROGRESS",
					"url": "https://jules.google.com/task/abc123",
					"createTime": "2026-08-20T10:00:00Z",
					"updateTime": "2026-08-20T11:30:00Z"
				},
				{
					"name": "sessions/def456",
					"id": "def456",
					"title": "Add pagination",
					"state": "COMPLETED"
				}
			],
			"nextPageToken": "tok"
		}`))
	})

	sessions, err := client.ListSessions(context.Background(), 20)
	require.NoError(t, err)

	assert.Equal(t, "/sessions", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "20", gotPageSize)

	require.Len(t, sessions, 2)
	assert.Equal(t, "abc123", sessions[0].ID, "id derived from resource name")
	assert.Equal(t, "sessions/abc123", sessions[0].Name)
	assert.Equal(t, "Fix flaky test", sessions[0].Title)
	assert.Equal(t, "IN_PROGRESS", sessions[0].State)
	assert.Equal(t, 2026, sessions[0].CreateTime.Year())
	assert.Equal(t, "def456", sessions[1].ID)
}

func TestClient_ListSessions_OmitsPageSizeWhenZero(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("pageSize"))
		_, _ = w.Write([]byte(`{"sessions": []}`))
	})

	sessions, err := client.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestClient_GetSession(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/abc123", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"name": "sessions/abc123", "state": "PAUSED"}`))
	})

	s, err := client.GetSession(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", s.ID)
	assert.Equal(t, "PAUSED", s.State)
}

func TestClient_ListActivities(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/abc123/activities", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("pageSize"))
		_, _ = w.Write([]byte(`{
			"activities": [
				{
					"name": "sessions/abc123/activities/act1",
					"description": "Exploring the repository",
					"createTime": "2026-08-20T10:05:00Z",
					"progressUpdated": {"title": "Exploring", "description": "reading files"}
				},
				{
					"name": "sessions/abc123/activities/act2",
					"createTime": "2026-08-20T10:10:00Z",
					"agentMessaged": {"message": "Should I delete the legacy shim?"}
				}
			]
		}`))
	})

	activities, err := client.ListActivities(context.Background(), "abc123", 10)
	require.NoError(t, err)
	require.Len(t, activities, 2)

	assert.Equal(t, "sessions/abc123/activities/act1", activities[0].Name)
	assert.Equal(t, "Exploring the repository", activities[0].Description)
	assert.Empty(t, activities[0].AgentMessage)
	require.NotNil(t, activities[0].Raw)
	assert.Equal(t, "sessions/abc123/activities/act1", activities[0].Raw["name"])

	assert.Equal(t, "Should I delete the legacy shim?", activities[1].AgentMessage)
	assert.Equal(t, "Should I delete the legacy shim?", activities[1].Description,
		"agent message backfills an empty description")
}

func TestClient_SendMessage(t *testing.T) {
	t.Parallel()

	var gotBody map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/abc123:sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{}`))
	})

	err := client.SendMessage(context.Background(), "abc123", "please continue")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"prompt": "please continue"}, gotBody)
}

func TestClient_ApprovePlan(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/abc123:approvePlan", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, client.ApprovePlan(context.Background(), "abc123"))
}

func TestClient_ErrorCarriesStatusForClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   remote.ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"API key not valid","status":"UNAUTHENTICATED"}}`, remote.KindAuthentication},
		{"throttled", http.StatusTooManyRequests, `{"error":{"message":"Quota exceeded"}}`, remote.KindRateLimited},
		{"upstream down", http.StatusServiceUnavailable, `oops`, remote.KindUpstreamDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.GetSession(context.Background(), "abc123")
			require.Error(t, err)
			assert.Equal(t, tt.want, remote.Classify(err))
		})
	}
}

func TestClient_ErrorIncludesRemoteMessage(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"pageSize out of range"}}`))
	})

	_, err := client.ListSessions(context.Background(), -5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pageSize out of range")
}

func TestClient_ContextCancellation(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetSession(ctx, "abc123")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
