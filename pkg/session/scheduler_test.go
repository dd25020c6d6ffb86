package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type firing struct {
	kind  TimerKind
	id    string
	token uint64
}

type recorder struct {
	mu    sync.Mutex
	fired []firing
}

func (r *recorder) fire(kind TimerKind, id string, token uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, firing{kind, id, token})
}

func (r *recorder) snapshot() []firing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]firing(nil), r.fired...)
}

func TestScheduler_ArmReplacesPreviousToken(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(20*time.Millisecond, 40*time.Millisecond, rec.fire)
	defer s.Stop()

	s.Arm("guest_1", 1)
	time.Sleep(10 * time.Millisecond)
	s.Arm("guest_1", 2)

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	got := rec.snapshot()
	assert.Equal(t, []firing{
		{TimerNudge, "guest_1", 2},
		{TimerTimeout, "guest_1", 2},
	}, got)
}

func TestScheduler_TimeoutForgetsSession(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(5*time.Millisecond, 10*time.Millisecond, rec.fire)
	defer s.Stop()

	s.Arm("guest_1", 7)
	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.timers) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_CancelAndStop(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(10*time.Millisecond, 20*time.Millisecond, rec.fire)

	s.Arm("guest_1", 1)
	s.Cancel("guest_1")
	s.Arm("guest_2", 1)
	s.Stop()
	s.Arm("guest_3", 1)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}
