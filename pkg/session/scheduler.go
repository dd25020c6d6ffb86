package session

import (
	"sync"
	"time"
)

// TimerKind identifies an inactivity timer.
type TimerKind string

const (
	TimerNudge   TimerKind = "nudge"
	TimerTimeout TimerKind = "timeout"
)

// FireFunc is invoked when a timer elapses. token is the activity token the timer was armed with.
type FireFunc func(kind TimerKind, sessionID string, token uint64)

type armed struct {
	token   uint64
	nudge   *time.Timer
	timeout *time.Timer
}

func (a *armed) stop() {
	a.nudge.Stop()
	a.timeout.Stop()
}

// Scheduler keeps one nudge and one timeout timer per session.
// Re-arming a session cancels its previous timers under the same lock, so a session
// never has timers armed with two different tokens. Timers that already fired carry
// their token; the receiver must compare it before acting.
type Scheduler struct {
	mu           sync.Mutex
	timers       map[string]*armed
	nudgeAfter   time.Duration
	timeoutAfter time.Duration
	fire         FireFunc
	stopped      bool
}

// NewScheduler creates a scheduler firing nudges after nudgeAfter and timeouts after timeoutAfter.
func NewScheduler(nudgeAfter, timeoutAfter time.Duration, fire FireFunc) *Scheduler {
	return &Scheduler{
		timers:       make(map[string]*armed),
		nudgeAfter:   nudgeAfter,
		timeoutAfter: timeoutAfter,
		fire:         fire,
	}
}

// Arm (re)starts both timers of a session for the given activity token.
func (s *Scheduler) Arm(sessionID string, token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[sessionID]; ok {
		prev.stop()
		delete(s.timers, sessionID)
	}
	if s.stopped {
		return
	}

	s.timers[sessionID] = &armed{
		token: token,
		nudge: time.AfterFunc(s.nudgeAfter, func() {
			s.fire(TimerNudge, sessionID, token)
		}),
		timeout: time.AfterFunc(s.timeoutAfter, func() {
			s.forget(sessionID, token)
			s.fire(TimerTimeout, sessionID, token)
		}),
	}
}

// Cancel stops the timers of a session.
func (s *Scheduler) Cancel(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[sessionID]; ok {
		prev.stop()
		delete(s.timers, sessionID)
	}
}

// Stop cancels every timer. Later calls to Arm are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, a := range s.timers {
		a.stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) forget(sessionID string, token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.timers[sessionID]; ok && a.token == token {
		delete(s.timers, sessionID)
	}
}
