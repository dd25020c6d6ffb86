package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/actbot/internal/runtime"
	"github.com/aretw0/actbot/pkg/adapters/memory"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/session"
)

var errDown = errors.New("collaborator down")

type failing struct{}

func (failing) PersistAnswer(ctx context.Context, identity string, fields map[string]any) error {
	return errDown
}

func (failing) RecordEvent(ctx context.Context, name, identity string, details map[string]any) error {
	return errDown
}

func (failing) EmailResumeLink(ctx context.Context, email string, stage int, answers map[string]any) error {
	return errDown
}

func newService(t *testing.T, opts ...session.ServiceOption) (*session.Service, *memory.Collaborator) {
	t.Helper()
	collab := memory.NewCollaborator()
	engine := runtime.NewEngine(runtime.WithPacing(0, 0))
	manager := session.NewManager(memory.NewStore())
	opts = append([]session.ServiceOption{
		session.WithDispatcher(session.NewDispatcher(collab, collab, collab, nil)),
	}, opts...)
	svc := session.NewService(engine, manager, opts...)
	t.Cleanup(svc.Close)
	return svc, collab
}

func hasEvent(events []domain.RecordedEvent, name string) bool {
	for _, ev := range events {
		if ev.Name == name {
			return true
		}
	}
	return false
}

func TestService_StartAndSubmit(t *testing.T) {
	svc, collab := newService(t)
	ctx := context.Background()

	res, err := svc.Start(ctx, domain.StartOptions{})
	require.NoError(t, err)
	id := res.Session.ID
	assert.Equal(t, 1, res.Prompt.Stage)

	res, err = svc.Submit(ctx, id, "ada")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Session.Stage)
	assert.Equal(t, 2, res.Prompt.Stage)

	stored, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.Session.Answers.FirstName)

	answers, err := collab.Answers(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", answers["first_name"])
}

func TestService_StartWithExistingID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, domain.StartOptions{SessionID: "guest_fixed"})
	require.NoError(t, err)
	_, err = svc.Start(ctx, domain.StartOptions{SessionID: "guest_fixed"})
	assert.ErrorIs(t, err, domain.ErrSessionExists)
}

// unreachableStore fails every load with something other than not-found.
type unreachableStore struct {
	saves int
}

func (s *unreachableStore) Save(ctx context.Context, id string, sess *domain.Session) error {
	s.saves++
	return nil
}

func (s *unreachableStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	return nil, errDown
}

func (s *unreachableStore) Delete(ctx context.Context, id string) error { return nil }
func (s *unreachableStore) List(ctx context.Context) ([]string, error)  { return nil, nil }

func TestService_StartDoesNotOverwriteOnLoadFailure(t *testing.T) {
	store := &unreachableStore{}
	svc := session.NewService(runtime.NewEngine(runtime.WithPacing(0, 0)), session.NewManager(store))
	t.Cleanup(svc.Close)

	_, err := svc.Start(context.Background(), domain.StartOptions{SessionID: "guest_fixed"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDown)
	assert.NotErrorIs(t, err, domain.ErrSessionExists)
	assert.Zero(t, store.saves)
}

func TestService_RejectionIsStored(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Start(ctx, domain.StartOptions{})
	require.NoError(t, err)
	id := res.Session.ID

	res, err = svc.Submit(ctx, id, "   ")
	require.Error(t, err)
	assert.True(t, domain.IsInputRejection(err))
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Session.Error)

	stored, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Session.Lifecycle.InvalidInputCount)
	assert.Equal(t, 1, stored.Session.Stage)
}

func TestService_Lockout(t *testing.T) {
	svc, collab := newService(t)
	ctx := context.Background()

	res, err := svc.Start(ctx, domain.StartOptions{})
	require.NoError(t, err)
	id := res.Session.ID

	for i := 0; i < runtime.DefaultMaxInvalidInputs; i++ {
		_, err = svc.Submit(ctx, id, "")
	}
	assert.ErrorIs(t, err, domain.ErrLockedSession)

	_, err = svc.Submit(ctx, id, "Ada")
	assert.ErrorIs(t, err, domain.ErrLockedSession)

	events, err := collab.Events(ctx, id)
	require.NoError(t, err)
	assert.True(t, hasEvent(events, domain.EventLockout))
}

func TestService_CollaboratorFailuresDoNotBlock(t *testing.T) {
	engine := runtime.NewEngine(runtime.WithPacing(0, 0))
	svc := session.NewService(engine, session.NewManager(memory.NewStore()),
		session.WithDispatcher(session.NewDispatcher(failing{}, failing{}, failing{}, nil)))
	ctx := context.Background()

	res, err := svc.Start(ctx, domain.StartOptions{})
	require.NoError(t, err)

	res, err = svc.Submit(ctx, res.Session.ID, "Ada")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Session.Stage)
	require.Len(t, res.Outcome.Failures, 1)
	assert.Equal(t, "persistAnswer", res.Outcome.Failures[0].Call)
	assert.ErrorIs(t, res.Outcome.Failures[0], errDown)
	assert.Equal(t, []string{runtime.MsgProcessingFailed}, res.Outcome.Notices)
}

func TestDispatcher_OneProcessingNoticePerOutcome(t *testing.T) {
	d := session.NewDispatcher(failing{}, failing{}, failing{}, nil)
	s := domain.NewSession("guest_fail", time.Now())
	s.Answers.Email = "ada@example.com"

	out := &domain.Outcome{Notices: []string{runtime.ResumeLinkSent("ada@example.com")}}
	out.Emit(
		domain.SideEffect{Kind: domain.EffectPersistAnswer, Delta: map[string]any{"first_name": "Ada"}},
		domain.RecordEvent(domain.EventBackButtonUsed, nil),
		domain.SideEffect{Kind: domain.EffectEmailResumeLink, Details: map[string]any{"email": "ada@example.com", "stage": 7}},
	)
	d.Dispatch(context.Background(), s, out)

	assert.Len(t, out.Failures, 3)
	assert.Equal(t, []string{runtime.MsgSaveFailed, runtime.MsgProcessingFailed}, out.Notices)

	// A failed resume mail alone keeps its specific notice only.
	out = &domain.Outcome{Notices: []string{runtime.ResumeLinkSent("ada@example.com")}}
	out.Emit(domain.SideEffect{Kind: domain.EffectEmailResumeLink, Details: map[string]any{"email": "ada@example.com", "stage": 7}})
	d.Dispatch(context.Background(), s, out)
	assert.Equal(t, []string{runtime.MsgSaveFailed}, out.Notices)
}

func TestService_SaveForLater(t *testing.T) {
	ctx := context.Background()
	resume := domain.ResumeOptions{
		Stage:   7,
		Answers: domain.Answers{FirstName: "Grace", Email: "grace@example.com", Purchase: domain.TierPlay},
	}

	t.Run("Sent", func(t *testing.T) {
		svc, collab := newService(t)
		res, err := svc.Resume(ctx, resume)
		require.NoError(t, err)

		res, err = svc.SaveForLater(ctx, res.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{runtime.ResumeLinkSent("grace@example.com")}, res.Outcome.Notices)

		links, err := collab.ResumeLinks(ctx, "grace@example.com")
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, 7, links[0].Stage)
	})

	t.Run("Failed", func(t *testing.T) {
		engine := runtime.NewEngine(runtime.WithPacing(0, 0))
		svc := session.NewService(engine, session.NewManager(memory.NewStore()),
			session.WithDispatcher(session.NewDispatcher(nil, nil, failing{}, nil)))
		res, err := svc.Resume(ctx, resume)
		require.NoError(t, err)

		res, err = svc.SaveForLater(ctx, res.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{runtime.MsgSaveFailed}, res.Outcome.Notices)
	})
}

func TestService_NotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Submit(context.Background(), "guest_missing", "Ada")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestService_InactivityTimers(t *testing.T) {
	svc, collab := newService(t, session.WithInactivityTimers(20*time.Millisecond, 100*time.Millisecond))
	ctx := context.Background()

	res, err := svc.Start(ctx, domain.StartOptions{})
	require.NoError(t, err)
	id := res.Session.ID

	assert.Eventually(t, func() bool {
		events, _ := collab.Events(ctx, id)
		return hasEvent(events, domain.EventInactivityNudgeSent)
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		events, _ := collab.Events(ctx, id)
		return hasEvent(events, domain.EventSessionTimeout)
	}, time.Second, 5*time.Millisecond)

	stored, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.LifecycleTimedOut, stored.Session.Lifecycle.State)
	assert.Equal(t, 1, stored.Session.Stage)

	res, err = svc.Submit(ctx, id, "Ada")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Session.Stage)
	assert.True(t, res.Session.Lifecycle.Active)
}

func TestService_ActivityPostponesTimeout(t *testing.T) {
	svc, collab := newService(t, session.WithInactivityTimers(150*time.Millisecond, 200*time.Millisecond))
	ctx := context.Background()

	res, err := svc.Start(ctx, domain.StartOptions{})
	require.NoError(t, err)
	id := res.Session.ID

	time.Sleep(100 * time.Millisecond)
	_, err = svc.Submit(ctx, id, "Ada")
	require.NoError(t, err)

	// The first timeout would have fired at 200ms.
	time.Sleep(140 * time.Millisecond)
	events, err := collab.Events(ctx, id)
	require.NoError(t, err)
	assert.False(t, hasEvent(events, domain.EventSessionTimeout))

	stored, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Session.Stage)
	assert.True(t, stored.Session.Lifecycle.Active)

	assert.Eventually(t, func() bool {
		events, _ := collab.Events(ctx, id)
		return hasEvent(events, domain.EventSessionTimeout)
	}, time.Second, 5*time.Millisecond)
}

func TestService_CompletedSessionDisarmsTimers(t *testing.T) {
	svc, collab := newService(t, session.WithInactivityTimers(30*time.Millisecond, 60*time.Millisecond))
	ctx := context.Background()

	res, err := svc.Start(ctx, domain.StartOptions{})
	require.NoError(t, err)
	id := res.Session.ID

	_, err = svc.Submit(ctx, id, runtime.DefaultBypassToken)
	require.NoError(t, err)
	res, err = svc.Submit(ctx, id, runtime.OptionConfirm)
	require.NoError(t, err)
	assert.True(t, res.Session.Completed())

	time.Sleep(120 * time.Millisecond)
	events, err := collab.Events(ctx, id)
	require.NoError(t, err)
	assert.False(t, hasEvent(events, domain.EventSessionTimeout))
}

func TestService_Listeners(t *testing.T) {
	var mu sync.Mutex
	var updates []session.Update
	svc, _ := newService(t, session.WithListener(func(ctx context.Context, u session.Update) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, u)
	}))
	ctx := context.Background()

	res, err := svc.Start(ctx, domain.StartOptions{})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, res.Session.ID, "Ada")
	require.NoError(t, err)

	var late int
	unsubscribe := svc.Subscribe(func(ctx context.Context, u session.Update) { late++ })
	_, err = svc.Help(ctx, res.Session.ID)
	require.NoError(t, err)
	unsubscribe()
	_, err = svc.Help(ctx, res.Session.ID)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 4)
	assert.Equal(t, res.Session.ID, updates[0].SessionID)
	require.NotNil(t, updates[1].Diff)
	require.NotNil(t, updates[1].Diff.Stage)
	assert.Equal(t, 2, *updates[1].Diff.Stage)
	assert.Equal(t, 1, late)
}

func TestService_ConcurrentSubmits(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Start(ctx, domain.StartOptions{})
	require.NoError(t, err)
	id := res.Session.ID

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.AcceptTerms(ctx, id)
		}()
	}
	wg.Wait()

	stored, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.Session.Lifecycle.TosAccepted)
	assert.Equal(t, uint64(1), stored.Session.Lifecycle.ActivityToken)
}
