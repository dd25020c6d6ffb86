package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/actbot/internal/logging"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/ports"
)

// Result is what a service call hands back to an adapter.
type Result struct {
	Session *domain.Session    `json:"session"`
	Outcome *domain.Outcome    `json:"outcome"`
	Prompt  domain.StagePrompt `json:"prompt"`
}

// Update is published to listeners after every operation that changed a session or
// produced messages, including timer firings.
type Update struct {
	SessionID string              `json:"session_id"`
	Diff      *domain.SessionDiff `json:"diff,omitempty"`
	Outcome   *domain.Outcome     `json:"outcome,omitempty"`
}

// Listener receives session updates. It must not block.
type Listener func(ctx context.Context, u Update)

// Service runs interview operations on stored sessions. Each operation loads the
// session, runs the state machine, dispatches side effects, re-arms the inactivity
// timers and saves, all while holding the session lock.
type Service struct {
	engine     ports.Interviewer
	manager    *Manager
	dispatcher *Dispatcher
	scheduler  *Scheduler
	logger     *slog.Logger

	mu        sync.RWMutex
	listeners []Listener
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithDispatcher sets the side effect dispatcher.
func WithDispatcher(d *Dispatcher) ServiceOption {
	return func(s *Service) {
		s.dispatcher = d
	}
}

// WithInactivityTimers enables the nudge and timeout timers.
func WithInactivityTimers(nudgeAfter, timeoutAfter time.Duration) ServiceOption {
	return func(s *Service) {
		s.scheduler = NewScheduler(nudgeAfter, timeoutAfter, s.onTimer)
	}
}

// WithListener registers a listener at construction time.
func WithListener(l Listener) ServiceOption {
	return func(s *Service) {
		s.listeners = append(s.listeners, l)
	}
}

// WithServiceLogger configures the logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a service over the given state machine and session manager.
func NewService(engine ports.Interviewer, manager *Manager, opts ...ServiceOption) *Service {
	s := &Service{
		engine:  engine,
		manager: manager,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dispatcher == nil {
		s.dispatcher = NewDispatcher(nil, nil, nil, s.logger)
	}
	return s
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Service) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
	idx := len(s.listeners) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

// Close stops the inactivity timers.
func (s *Service) Close() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Engine returns the state machine.
func (s *Service) Engine() ports.Interviewer {
	return s.engine
}

// Manager returns the session manager.
func (s *Service) Manager() *Manager {
	return s.manager
}

// Start opens and stores a new session.
func (s *Service) Start(ctx context.Context, opts domain.StartOptions) (*Result, error) {
	sess, out := s.engine.Start(ctx, opts)
	return s.create(ctx, sess, out)
}

// Resume opens and stores a session from a validated handoff snapshot.
func (s *Service) Resume(ctx context.Context, opts domain.ResumeOptions) (*Result, error) {
	sess, out, err := s.engine.Resume(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, sess, out)
}

func (s *Service) create(ctx context.Context, sess *domain.Session, out *domain.Outcome) (*Result, error) {
	err := s.manager.WithLock(ctx, sess.ID, func(ctx context.Context) error {
		if err := s.manager.create(ctx, sess); err != nil {
			return err
		}
		s.dispatcher.Dispatch(ctx, sess, out)
		s.rearm(nil, sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, nil, sess, out)
	return &Result{Session: sess, Outcome: out, Prompt: s.engine.Prompt(sess)}, nil
}

// Get returns the stored session and its current prompt.
func (s *Service) Get(ctx context.Context, sessionID string) (*Result, error) {
	sess, err := s.manager.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Result{Session: sess, Outcome: &domain.Outcome{}, Prompt: s.engine.Prompt(sess)}, nil
}

// Submit processes an answer. On rejection both the result (carrying the error
// message and counters) and the rejection error are returned.
func (s *Service) Submit(ctx context.Context, sessionID, answer string) (*Result, error) {
	return s.apply(ctx, sessionID, func(ctx context.Context, cur *domain.Session) (*domain.Session, *domain.Outcome, error) {
		return s.engine.SubmitAnswer(ctx, cur, answer)
	})
}

// Back navigates to the previous stage.
func (s *Service) Back(ctx context.Context, sessionID string) (*Result, error) {
	return s.apply(ctx, sessionID, s.engine.GoBack)
}

// AcceptTerms records Terms of Service acceptance.
func (s *Service) AcceptTerms(ctx context.Context, sessionID string) (*Result, error) {
	return s.apply(ctx, sessionID, s.engine.AcceptTerms)
}

// Help returns the help prompt and hint.
func (s *Service) Help(ctx context.Context, sessionID string) (*Result, error) {
	return s.apply(ctx, sessionID, func(ctx context.Context, cur *domain.Session) (*domain.Session, *domain.Outcome, error) {
		return cur, s.engine.Help(ctx, cur), nil
	})
}

// SaveForLater emails a resume link when an email is known.
func (s *Service) SaveForLater(ctx context.Context, sessionID string) (*Result, error) {
	return s.apply(ctx, sessionID, func(ctx context.Context, cur *domain.Session) (*domain.Session, *domain.Outcome, error) {
		return cur, s.engine.SaveForLater(ctx, cur), nil
	})
}

// Delete removes a session and its timers.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	if s.scheduler != nil {
		s.scheduler.Cancel(sessionID)
	}
	return s.manager.Delete(ctx, sessionID)
}

type operation func(ctx context.Context, cur *domain.Session) (*domain.Session, *domain.Outcome, error)

func (s *Service) apply(ctx context.Context, sessionID string, op operation) (*Result, error) {
	var prev *domain.Session
	var out *domain.Outcome
	next, err := s.manager.Update(ctx, sessionID, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		prev = cur
		n, o, opErr := op(ctx, cur)
		if n == nil {
			return nil, opErr
		}
		if o == nil {
			o = &domain.Outcome{}
		}
		out = o
		s.dispatcher.Dispatch(ctx, n, o)
		s.rearm(cur, n)
		return n, opErr
	})
	if out == nil {
		return nil, err
	}
	s.publish(ctx, prev, next, out)
	return &Result{Session: next, Outcome: out, Prompt: s.engine.Prompt(next)}, err
}

// rearm restarts the timers when activity moved the token and cancels them once the
// session stops waiting on the user.
func (s *Service) rearm(prev, next *domain.Session) {
	if s.scheduler == nil {
		return
	}
	if !next.Lifecycle.Active {
		s.scheduler.Cancel(next.ID)
		return
	}
	if prev == nil || prev.Lifecycle.ActivityToken != next.Lifecycle.ActivityToken || !prev.Lifecycle.Active {
		s.scheduler.Arm(next.ID, next.Lifecycle.ActivityToken)
	}
}

func (s *Service) onTimer(kind TimerKind, sessionID string, token uint64) {
	ctx := context.Background()
	_, err := s.apply(ctx, sessionID, func(ctx context.Context, cur *domain.Session) (*domain.Session, *domain.Outcome, error) {
		var next *domain.Session
		var out *domain.Outcome
		var fired bool
		switch kind {
		case TimerNudge:
			next, out, fired = s.engine.Nudge(ctx, cur, token)
		case TimerTimeout:
			next, out, fired = s.engine.Expire(ctx, cur, token)
		}
		if !fired {
			return nil, nil, nil
		}
		return next, out, nil
	})
	if err != nil {
		s.logger.Warn("inactivity timer failed", "session_id", sessionID, "timer", kind, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, prev, next *domain.Session, out *domain.Outcome) {
	diff := domain.Diff(prev, next)
	if diff == nil && len(out.Replies) == 0 && len(out.Notices) == 0 {
		return
	}
	u := Update{SessionID: next.ID, Diff: diff, Outcome: out}

	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, l := range listeners {
		if l != nil {
			l(ctx, u)
		}
	}
}
