package intervene_test

import (
	"context"
	"errors"
	"time"

	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/remote"
)

var errNotImplemented = errors.New("not implemented")

type mockRemote struct {
	listActivitiesFunc func(ctx context.Context, sessionID string, pageSize int) ([]remote.Activity, error)
	sendMessageFunc    func(ctx context.Context, sessionID, text string) error
	approvePlanFunc    func(ctx context.Context, sessionID string) error
}

func (m *mockRemote) ListSessions(_ context.Context, _ int) ([]remote.Session, error) {
	return nil, errNotImplemented
}

func (m *mockRemote) GetSession(_ context.Context, _ string) (*remote.Session, error) {
	return nil, errNotImplemented
}

func (m *mockRemote) ListActivities(ctx context.Context, sessionID string, pageSize int) ([]remote.Activity, error) {
	if m.listActivitiesFunc != nil {
		return m.listActivitiesFunc(ctx, sessionID, pageSize)
	}
	return nil, errNotImplemented
}

func (m *mockRemote) SendMessage(ctx context.Context, sessionID, text string) error {
	if m.sendMessageFunc != nil {
		return m.sendMessageFunc(ctx, sessionID, text)
	}
	return errNotImplemented
}

func (m *mockRemote) ApprovePlan(ctx context.Context, sessionID string) error {
	if m.approvePlanFunc != nil {
		return m.approvePlanFunc(ctx, sessionID)
	}
	return errNotImplemented
}

// mockSessionRepo serves stuck sessions by status; the dispatcher only lists.
type mockSessionRepo struct {
	byStatus map[domain.SessionStatus][]*domain.Session
	listErr  error
}

func (m *mockSessionRepo) Create(_ context.Context, _ *domain.Session) error {
	return errNotImplemented
}

func (m *mockSessionRepo) GetByID(_ context.Context, _ string) (*domain.Session, error) {
	return nil, errNotImplemented
}

func (m *mockSessionRepo) List(_ context.Context, _ int) ([]*domain.Session, error) {
	return nil, errNotImplemented
}

func (m *mockSessionRepo) ListActive(_ context.Context) ([]*domain.Session, error) {
	return nil, errNotImplemented
}

func (m *mockSessionRepo) ListByStatus(_ context.Context, status domain.SessionStatus) ([]*domain.Session, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.byStatus[status], nil
}

func (m *mockSessionRepo) UpdateStatus(_ context.Context, _ string, _ domain.SessionStatus, _ *time.Time) error {
	return errNotImplemented
}

type mockInteractionRepo struct {
	createFunc        func(ctx context.Context, i *domain.Interaction) error
	findAgentReply    func(ctx context.Context, sessionID, message string) (*domain.Interaction, error)
	listBySessionFunc func(ctx context.Context, sessionID string, limit int) ([]*domain.Interaction, error)
}

func (m *mockInteractionRepo) Create(ctx context.Context, i *domain.Interaction) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, i)
	}
	return errNotImplemented
}

func (m *mockInteractionRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.Interaction, error) {
	if m.listBySessionFunc != nil {
		return m.listBySessionFunc(ctx, sessionID, limit)
	}
	return nil, errNotImplemented
}

func (m *mockInteractionRepo) FindAgentReply(ctx context.Context, sessionID, message string) (*domain.Interaction, error) {
	if m.findAgentReply != nil {
		return m.findAgentReply(ctx, sessionID, message)
	}
	return nil, domain.ErrNotFound
}

// recordingInteractions collects every interaction the dispatcher writes.
func recordingInteractions() (*mockInteractionRepo, *[]*domain.Interaction) {
	created := make([]*domain.Interaction, 0, 4)
	repo := &mockInteractionRepo{
		createFunc: func(_ context.Context, i *domain.Interaction) error {
			created = append(created, i)
			return nil
		},
	}
	return repo, &created
}

type notifierEvent struct {
	kind      string
	sessionID string
	question  string
	detail    string
}

type recordingNotifier struct {
	events []notifierEvent
}

func (n *recordingNotifier) InterventionSent(_ context.Context, s *domain.Session, question, reply string) {
	n.events = append(n.events, notifierEvent{"sent", s.ID, question, reply})
}

func (n *recordingNotifier) InterventionFailed(_ context.Context, s *domain.Session, question, errText string) {
	n.events = append(n.events, notifierEvent{"failed", s.ID, question, errText})
}

func (n *recordingNotifier) PlanApproved(_ context.Context, s *domain.Session) {
	n.events = append(n.events, notifierEvent{kind: "approved", sessionID: s.ID})
}

type stubAdvisor struct {
	reply string
	err   error
}

func (a *stubAdvisor) Generate(_ context.Context, _ string, _ domain.SessionContext) (string, error) {
	return a.reply, a.err
}
