package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/actbot/pkg/domain"
)

func TestNudge(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	s, _ := e.Start(ctx, domain.StartOptions{SessionID: "sess-1"})
	s = advance(t, e, s, "Ada")
	token := s.Lifecycle.ActivityToken

	t.Run("Stale Token", func(t *testing.T) {
		same, out, ok := e.Nudge(ctx, s, token-1)
		assert.False(t, ok)
		assert.Nil(t, out)
		assert.Same(t, s, same)
	})

	nudged, out, ok := e.Nudge(ctx, s, token)
	require.True(t, ok)
	assert.Equal(t, domain.LifecycleNudged, nudged.Lifecycle.State)
	assert.True(t, nudged.Lifecycle.Active)
	assert.Equal(t, []string{"Still here, Ada? Let's explore your query!"}, out.Notices)
	assert.Equal(t, domain.EventInactivityNudgeSent, out.Effects[0].Event)
	assert.Len(t, nudged.Transcript, len(s.Transcript))

	t.Run("Only Once", func(t *testing.T) {
		_, _, ok := e.Nudge(ctx, nudged, token)
		assert.False(t, ok)
	})

	t.Run("Activity Clears Nudge", func(t *testing.T) {
		next := advance(t, e, nudged, businessAnswer)
		assert.Equal(t, domain.LifecycleActive, next.Lifecycle.State)
		assert.Greater(t, next.Lifecycle.ActivityToken, token)

		_, _, ok := e.Expire(ctx, next, token)
		assert.False(t, ok, "timer armed before the answer must not fire")
	})
}

func TestExpire(t *testing.T) {
	var states []domain.LifecycleState
	e := newTestEngine(WithLifecycleHooks(domain.LifecycleHooks{
		OnLifecycle: func(_ context.Context, ev *domain.LifecycleEvent) { states = append(states, ev.State) },
	}))
	ctx := context.Background()

	s := resumeAt(t, e, 6, domain.Answers{FirstName: "Ada", Email: "ada@example.com", Purchase: domain.TierPlay})
	s = advance(t, e, s, "Stable")
	require.False(t, s.Score.IsZero())
	token := s.Lifecycle.ActivityToken

	expired, out, ok := e.Expire(ctx, s, token)
	require.True(t, ok)
	assert.Equal(t, s.ID, expired.ID)
	assert.Equal(t, domain.FirstStage, expired.Stage)
	assert.Equal(t, domain.Answers{}, expired.Answers)
	assert.Empty(t, expired.Transcript)
	assert.True(t, expired.Score.IsZero())
	assert.False(t, expired.Lifecycle.TosAccepted)
	assert.False(t, expired.Lifecycle.Active)
	assert.Equal(t, domain.LifecycleTimedOut, expired.Lifecycle.State)
	assert.Equal(t, []string{MsgTimeout}, out.Notices)
	assert.Equal(t, domain.EventSessionTimeout, out.Effects[0].Event)
	assert.Equal(t, []domain.LifecycleState{domain.LifecycleTimedOut}, states)

	_, _, ok = e.Expire(ctx, expired, expired.Lifecycle.ActivityToken)
	assert.False(t, ok, "an inactive session cannot expire twice")

	restarted := advance(t, e, expired, "Grace Hopper")
	assert.Equal(t, 2, restarted.Stage)
	assert.Equal(t, domain.LifecycleActive, restarted.Lifecycle.State)
	assert.True(t, restarted.Lifecycle.Active)
}

func TestLockedSessionIgnoresTimers(t *testing.T) {
	e := newTestEngine(WithMaxInvalidInputs(1))
	ctx := context.Background()
	s, _ := e.Start(ctx, domain.StartOptions{})
	s = advance(t, e, s, "Ada")

	locked, _, err := e.SubmitAnswer(ctx, s, "short")
	require.ErrorIs(t, err, domain.ErrLockedSession)

	_, _, ok := e.Nudge(ctx, locked, locked.Lifecycle.ActivityToken)
	assert.False(t, ok)
	_, _, ok = e.Expire(ctx, locked, locked.Lifecycle.ActivityToken)
	assert.False(t, ok)
}
