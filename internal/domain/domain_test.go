package domain_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/vigil/internal/domain"
)

// ---------------------------------------------------------------------------
// 1. SessionStatus predicates — full matrix over every known state.
// ---------------------------------------------------------------------------

func TestSessionStatus_Terminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status domain.SessionStatus
		want   bool
	}{
		{domain.SessionStatusQueued, false},
		{domain.SessionStatusPlanning, false},
		{domain.SessionStatusAwaitingPlanApproval, false},
		{domain.SessionStatusAwaitingUserFeedback, false},
		{domain.SessionStatusInProgress, false},
		{domain.SessionStatusPaused, false},
		{domain.SessionStatusCompleted, true},
		{domain.SessionStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.status.Terminal())
		})
	}
}

// TestSessionStatus_Terminal_UnknownStatus verifies that states the remote
// service invents later are treated as live, not final.
func TestSessionStatus_Terminal_UnknownStatus(t *testing.T) {
	t.Parallel()

	assert.False(t, domain.SessionStatus("SOME_FUTURE_STATE").Terminal())
}

func TestSessionStatus_NeedsAttention(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status domain.SessionStatus
		want   bool
	}{
		{domain.SessionStatusQueued, false},
		{domain.SessionStatusPlanning, false},
		{domain.SessionStatusAwaitingPlanApproval, true},
		{domain.SessionStatusAwaitingUserFeedback, true},
		{domain.SessionStatusInProgress, false},
		{domain.SessionStatusPaused, false},
		{domain.SessionStatusCompleted, false},
		{domain.SessionStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.status.NeedsAttention())
		})
	}
}

// ---------------------------------------------------------------------------
// 2. Session.RemoteName.
// ---------------------------------------------------------------------------

func TestSession_RemoteName(t *testing.T) {
	t.Parallel()

	session := &domain.Session{ID: "31415926"}
	assert.Equal(t, "sessions/31415926", session.RemoteName())
}

// ---------------------------------------------------------------------------
// 3. ParseSessionContext — malformed payloads degrade to empty, never error.
// ---------------------------------------------------------------------------

func TestParseSessionContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  json.RawMessage
		want domain.SessionContext
	}{
		{
			name: "nil payload",
			raw:  nil,
			want: domain.SessionContext{},
		},
		{
			name: "empty payload",
			raw:  json.RawMessage(``),
			want: domain.SessionContext{},
		},
		{
			name: "malformed json",
			raw:  json.RawMessage(`{"bindings": [`),
			want: domain.SessionContext{},
		},
		{
			name: "wrong shape",
			raw:  json.RawMessage(`["not", "an", "object"]`),
			want: domain.SessionContext{},
		},
		{
			name: "full payload",
			raw: json.RawMessage(`{
				"bindings": ["github.com/gosuda/vigil@main"],
				"techStack": ["go", "postgres"],
				"constraints": ["no new dependencies"],
				"documentation": ["README.md"]
			}`),
			want: domain.SessionContext{
				Bindings:      []string{"github.com/gosuda/vigil@main"},
				TechStack:     []string{"go", "postgres"},
				Constraints:   []string{"no new dependencies"},
				Documentation: []string{"README.md"},
			},
		},
		{
			name: "partial payload",
			raw:  json.RawMessage(`{"techStack": ["go"]}`),
			want: domain.SessionContext{TechStack: []string{"go"}},
		},
		{
			name: "unknown keys ignored",
			raw:  json.RawMessage(`{"bindings": ["a/b"], "model": "large"}`),
			want: domain.SessionContext{Bindings: []string{"a/b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := domain.ParseSessionContext(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionContext_Empty(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.SessionContext{}.Empty())
	assert.False(t, domain.SessionContext{Bindings: []string{"a/b"}}.Empty())
	assert.False(t, domain.SessionContext{Documentation: []string{"x"}}.Empty())
}

// ---------------------------------------------------------------------------
// 4. Sentinel errors — identity, distinctness, and wrapping.
// ---------------------------------------------------------------------------

func TestSentinelErrors_Identity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", domain.ErrNotFound},
		{"ErrConflict", domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Error(t, tt.err, "sentinel error should not be nil")
			assert.NotEmpty(t, tt.err.Error(), "error message should not be empty")
		})
	}
}

func TestSentinelErrors_WrappingPreservesIdentity(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("outer: %w", domain.ErrNotFound)
	require.ErrorIs(t, wrapped, domain.ErrNotFound)
	assert.NotErrorIs(t, wrapped, domain.ErrConflict)

	doubleWrapped := fmt.Errorf("outer2: %w", wrapped)
	require.ErrorIs(t, doubleWrapped, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// 5. Status constants — string value regression guards. These values are the
//    remote wire states and must not drift.
// ---------------------------------------------------------------------------

func TestSessionStatusConstants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  domain.SessionStatus
		want string
	}{
		{"queued", domain.SessionStatusQueued, "QUEUED"},
		{"planning", domain.SessionStatusPlanning, "PLANNING"},
		{"awaiting_plan_approval", domain.SessionStatusAwaitingPlanApproval, "AWAITING_PLAN_APPROVAL"},
		{"awaiting_user_feedback", domain.SessionStatusAwaitingUserFeedback, "AWAITING_USER_FEEDBACK"},
		{"in_progress", domain.SessionStatusInProgress, "IN_PROGRESS"},
		{"paused", domain.SessionStatusPaused, "PAUSED"},
		{"completed", domain.SessionStatusCompleted, "COMPLETED"},
		{"failed", domain.SessionStatusFailed, "FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, string(tt.got))
		})
	}
}

func TestInteractionTypeConstants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  domain.InteractionType
		want string
	}{
		{"status_check", domain.InteractionStatusCheck, "STATUS_CHECK"},
		{"auto_approval", domain.InteractionAutoApproval, "AUTO_APPROVAL"},
		{"intervention_needed", domain.InteractionInterventionNeeded, "INTERVENTION_NEEDED"},
		{"agent_reply", domain.InteractionAgentReply, "AGENT_REPLY"},
		{"retrofit", domain.InteractionRetrofit, "RETROFIT"},
		{"error", domain.InteractionError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, string(tt.got))
		})
	}
}

func TestSessionOriginConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "INTERNAL", string(domain.SessionOriginInternal))
	assert.Equal(t, "EXTERNAL", string(domain.SessionOriginExternal))
}
