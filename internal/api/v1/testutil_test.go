package v1_test

import (
	"context"
	"time"

	"github.com/gosuda/vigil/internal/domain"
	"github.com/gosuda/vigil/internal/reconcile"
)

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	sessions     domain.SessionRepository
	activities   domain.ActivityRepository
	interactions domain.InteractionRepository
}

func (m *mockDataStore) Sessions() domain.SessionRepository         { return m.sessions }
func (m *mockDataStore) Activities() domain.ActivityRepository      { return m.activities }
func (m *mockDataStore) Interactions() domain.InteractionRepository { return m.interactions }

// ---------------------------------------------------------------------------
// Mock SessionRepository
// ---------------------------------------------------------------------------

type mockSessionRepo struct {
	createFunc       func(ctx context.Context, s *domain.Session) error
	getByIDFunc      func(ctx context.Context, id string) (*domain.Session, error)
	listFunc         func(ctx context.Context, limit int) ([]*domain.Session, error)
	listActiveFunc   func(ctx context.Context) ([]*domain.Session, error)
	listByStatusFunc func(ctx context.Context, status domain.SessionStatus) ([]*domain.Session, error)
	updateStatusFunc func(ctx context.Context, id string, status domain.SessionStatus, completedAt *time.Time) error
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	return m.createFunc(ctx, s)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockSessionRepo) List(ctx context.Context, limit int) ([]*domain.Session, error) {
	return m.listFunc(ctx, limit)
}

func (m *mockSessionRepo) ListActive(ctx context.Context) ([]*domain.Session, error) {
	return m.listActiveFunc(ctx)
}

func (m *mockSessionRepo) ListByStatus(ctx context.Context, status domain.SessionStatus) ([]*domain.Session, error) {
	return m.listByStatusFunc(ctx, status)
}

func (m *mockSessionRepo) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, completedAt *time.Time) error {
	return m.updateStatusFunc(ctx, id, status, completedAt)
}

// ---------------------------------------------------------------------------
// Mock ActivityRepository
// ---------------------------------------------------------------------------

type mockActivityRepo struct {
	createFunc         func(ctx context.Context, a *domain.Activity) error
	listBySessionFunc  func(ctx context.Context, sessionID string, limit int) ([]*domain.Activity, error)
	findByRemoteIDFunc func(ctx context.Context, sessionID, remoteID string) (*domain.Activity, error)
}

func (m *mockActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	return m.createFunc(ctx, a)
}

func (m *mockActivityRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.Activity, error) {
	return m.listBySessionFunc(ctx, sessionID, limit)
}

func (m *mockActivityRepo) FindByRemoteID(ctx context.Context, sessionID, remoteID string) (*domain.Activity, error) {
	return m.findByRemoteIDFunc(ctx, sessionID, remoteID)
}

// ---------------------------------------------------------------------------
// Mock InteractionRepository
// ---------------------------------------------------------------------------

type mockInteractionRepo struct {
	createFunc         func(ctx context.Context, i *domain.Interaction) error
	listBySessionFunc  func(ctx context.Context, sessionID string, limit int) ([]*domain.Interaction, error)
	findAgentReplyFunc func(ctx context.Context, sessionID, message string) (*domain.Interaction, error)
}

func (m *mockInteractionRepo) Create(ctx context.Context, i *domain.Interaction) error {
	return m.createFunc(ctx, i)
}

func (m *mockInteractionRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.Interaction, error) {
	return m.listBySessionFunc(ctx, sessionID, limit)
}

func (m *mockInteractionRepo) FindAgentReply(ctx context.Context, sessionID, message string) (*domain.Interaction, error) {
	return m.findAgentReplyFunc(ctx, sessionID, message)
}

// ---------------------------------------------------------------------------
// Mock Reconciler / FreshnessReader
// ---------------------------------------------------------------------------

type mockReconciler struct {
	runFunc    func(ctx context.Context) reconcile.Result
	lastResult *reconcile.Result
}

func (m *mockReconciler) Run(ctx context.Context) reconcile.Result {
	return m.runFunc(ctx)
}

func (m *mockReconciler) LastResult() (reconcile.Result, bool) {
	if m.lastResult == nil {
		return reconcile.Result{}, false
	}
	return *m.lastResult, true
}

type mockFreshness struct {
	t   time.Time
	ok  bool
	err error
}

func (m *mockFreshness) LastSync(_ context.Context) (time.Time, bool, error) {
	return m.t, m.ok, m.err
}
