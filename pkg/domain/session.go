package domain

import (
	"slices"
	"time"
)

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleBot  Role = "bot"
	RoleUser Role = "user"
)

// TranscriptEntry is one message of the conversation.
type TranscriptEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// Score holds the running incentive estimates.
type Score struct {
	Savings float64 `json:"savings"`
	Hours   float64 `json:"hours"`
}

// Add returns the sum of both scores.
func (s Score) Add(d Score) Score {
	return Score{Savings: s.Savings + d.Savings, Hours: s.Hours + d.Hours}
}

// IsZero reports whether both totals are zero.
func (s Score) IsZero() bool {
	return s.Savings == 0 && s.Hours == 0
}

// LifecycleState is the liveness state of a session.
type LifecycleState string

const (
	LifecycleActive    LifecycleState = "active"
	LifecycleNudged    LifecycleState = "nudged"
	LifecycleTimedOut  LifecycleState = "timed_out"
	LifecycleLocked    LifecycleState = "locked"
	LifecycleDeclined  LifecycleState = "declined"
	LifecycleCompleted LifecycleState = "completed"
)

// Lifecycle tracks liveness, invalid input and terms acceptance.
type Lifecycle struct {
	State             LifecycleState `json:"state"`
	Active            bool           `json:"active"`
	LastActivityAt    time.Time      `json:"last_activity_at"`
	InvalidInputCount int            `json:"invalid_input_count"`
	TosAccepted       bool           `json:"tos_accepted"`

	// ActivityToken increases on every activity event. Timers capture it when
	// scheduled and only act if it is still current when they fire.
	ActivityToken uint64 `json:"activity_token"`
}

// Session is an immutable snapshot of one interview.
// Operations never mutate a Session in place; they return a modified Clone.
type Session struct {
	ID          string            `json:"id"`
	Stage       int               `json:"stage"`
	Answers     Answers           `json:"answers"`
	Score       Score             `json:"score"`
	Transcript  []TranscriptEntry `json:"transcript"`
	Lifecycle   Lifecycle         `json:"lifecycle"`
	BackEnabled bool              `json:"back_enabled"`
	Progress    int               `json:"progress"`
	Error       string            `json:"error,omitempty"`

	// Sealed carries the encrypted payload when the session is stored as an envelope.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates a session at stage 1.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		Stage:      FirstStage,
		Transcript: []TranscriptEntry{},
		Lifecycle: Lifecycle{
			State:          LifecycleActive,
			Active:         true,
			LastActivityAt: now,
		},
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Transcript = slices.Clone(s.Transcript)
	if c.Transcript == nil {
		c.Transcript = []TranscriptEntry{}
	}
	c.Answers.Q5Keywords = slices.Clone(s.Answers.Q5Keywords)
	return &c
}

// Identity is the identifier handed to collaborators: the email once known,
// otherwise the generated session id.
func (s *Session) Identity() string {
	if s.Answers.Email != "" {
		return s.Answers.Email
	}
	return s.ID
}

// Locked reports whether the session refuses further input.
func (s *Session) Locked() bool {
	return s.Lifecycle.State == LifecycleLocked
}

// Completed reports whether the interview reached its terminal stage.
func (s *Session) Completed() bool {
	return s.Lifecycle.State == LifecycleCompleted
}

// Say appends a transcript entry and returns the session for chaining.
func (s *Session) Say(role Role, content string) *Session {
	s.Transcript = append(s.Transcript, TranscriptEntry{
		Role:    role,
		Content: content,
		Order:   len(s.Transcript),
	})
	return s
}

// LastBotMessage returns the content of the most recent bot entry, if any.
func (s *Session) LastBotMessage() string {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Role == RoleBot {
			return s.Transcript[i].Content
		}
	}
	return ""
}
