package reconcile_test

import (
	"context"
	"errors"
	"time"

	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/remote"
)

var errNotImplemented = errors.New("not implemented")

type mockRemote struct {
	listSessionsFunc   func(ctx context.Context, pageSize int) ([]remote.Session, error)
	getSessionFunc     func(ctx context.Context, id string) (*remote.Session, error)
	listActivitiesFunc func(ctx context.Context, sessionID string, pageSize int) ([]remote.Activity, error)
	sendMessageFunc    func(ctx context.Context, sessionID, text string) error
	approvePlanFunc    func(ctx context.Context, sessionID string) error
}

func (m *mockRemote) ListSessions(ctx context.Context, pageSize int) ([]remote.Session, error) {
	if m.listSessionsFunc != nil {
		return m.listSessionsFunc(ctx, pageSize)
	}
	return nil, errNotImplemented
}

func (m *mockRemote) GetSession(ctx context.Context, id string) (*remote.Session, error) {
	if m.getSessionFunc != nil {
		return m.getSessionFunc(ctx, id)
	}
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

type mockSessionRepo struct {
	createFunc       func(ctx context.Context, s *domain.Session) error
	getByIDFunc      func(ctx context.Context, id string) (*domain.Session, error)
	listFunc         func(ctx context.Context, limit int) ([]*domain.Session, error)
	listActiveFunc   func(ctx context.Context) ([]*domain.Session, error)
	listByStatusFunc func(ctx context.Context, status domain.SessionStatus) ([]*domain.Session, error)
	updateStatusFunc func(ctx context.Context, id string, status domain.SessionStatus, completedAt *time.Time) error
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, s)
	}
	return errNotImplemented
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockSessionRepo) List(ctx context.Context, limit int) ([]*domain.Session, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit)
	}
	return nil, errNotImplemented
}

func (m *mockSessionRepo) ListActive(ctx context.Context) ([]*domain.Session, error) {
	if m.listActiveFunc != nil {
		return m.listActiveFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockSessionRepo) ListByStatus(ctx context.Context, status domain.SessionStatus) ([]*domain.Session, error) {
	if m.listByStatusFunc != nil {
		return m.listByStatusFunc(ctx, status)
	}
	return nil, errNotImplemented
}

func (m *mockSessionRepo) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, completedAt *time.Time) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status, completedAt)
	}
	return errNotImplemented
}

type mockActivityRepo struct {
	createFunc         func(ctx context.Context, a *domain.Activity) error
	listBySessionFunc  func(ctx context.Context, sessionID string, limit int) ([]*domain.Activity, error)
	findByRemoteIDFunc func(ctx context.Context, sessionID, remoteID string) (*domain.Activity, error)
}

func (m *mockActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, a)
	}
	return errNotImplemented
}

func (m *mockActivityRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.Activity, error) {
	if m.listBySessionFunc != nil {
		return m.listBySessionFunc(ctx, sessionID, limit)
	}
	return nil, errNotImplemented
}

func (m *mockActivityRepo) FindByRemoteID(ctx context.Context, sessionID, remoteID string) (*domain.Activity, error) {
	if m.findByRemoteIDFunc != nil {
		return m.findByRemoteIDFunc(ctx, sessionID, remoteID)
	}
	return nil, errNotImplemented
}

// recordingActivityRepo is the common "nothing mirrored yet" base: every
// lookup misses and every insert is remembered.
func recordingActivityRepo() (*mockActivityRepo, *[]*domain.Activity) {
	created := make([]*domain.Activity, 0, 4)
	repo := &mockActivityRepo{
		findByRemoteIDFunc: func(_ context.Context, _, _ string) (*domain.Activity, error) {
			return nil, domain.ErrNotFound
		},
		createFunc: func(_ context.Context, a *domain.Activity) error {
			created = append(created, a)
			return nil
		},
	}
	return repo, &created
}
