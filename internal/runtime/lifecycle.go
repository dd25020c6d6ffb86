package runtime

import (
	"context"
	"time"

	"github.com/aretw0/actbot/pkg/domain"
)

// Inactivity intervals measured from the last activity.
const (
	DefaultNudgeAfter   = 8 * time.Minute
	DefaultTimeoutAfter = 10 * time.Minute
)

// current reports whether a timer armed with token may still act on s.
func current(s *domain.Session, token uint64) bool {
	return s != nil && s.Lifecycle.Active && s.Lifecycle.ActivityToken == token
}

// Nudge emits the one-time inactivity reminder. It returns false and leaves s
// untouched when token is stale or the session is not waiting on the user.
func (e *Engine) Nudge(ctx context.Context, s *domain.Session, token uint64) (*domain.Session, *domain.Outcome, bool) {
	if !current(s, token) || s.Lifecycle.State != domain.LifecycleActive {
		return s, nil, false
	}
	next := s.Clone()
	next.Lifecycle.State = domain.LifecycleNudged

	msg := NudgeText(next.Answers)
	out := &domain.Outcome{Notices: []string{msg}}
	out.Emit(domain.RecordEvent(domain.EventInactivityNudgeSent, map[string]any{"stage": s.Stage}))

	e.notifyLifecycle(ctx, next)
	e.logger.DebugContext(ctx, "nudge sent", "session_id", s.ID, "stage", s.Stage)
	return next, out, true
}

// Expire resets an idle session to stage 1. Only the session id survives; the
// answers, transcript and score are discarded. It returns false when token is stale.
func (e *Engine) Expire(ctx context.Context, s *domain.Session, token uint64) (*domain.Session, *domain.Outcome, bool) {
	if !current(s, token) {
		return s, nil, false
	}
	next := domain.NewSession(s.ID, e.clock())
	next.Lifecycle.State = domain.LifecycleTimedOut
	next.Lifecycle.Active = false
	next.Lifecycle.ActivityToken = s.Lifecycle.ActivityToken + 1

	out := &domain.Outcome{Notices: []string{MsgTimeout}}
	out.Emit(domain.RecordEvent(domain.EventSessionTimeout, map[string]any{"stage": s.Stage}))

	e.notifyLifecycle(ctx, next)
	e.logger.InfoContext(ctx, "session timed out", "session_id", s.ID, "stage", s.Stage, "error", domain.ErrLifecycleExpired)
	return next, out, true
}
