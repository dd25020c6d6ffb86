package ports

import (
	"context"
	"time"
)

// AnswerPersister stores the answer fields that changed on a transition.
// Removed fields arrive with a nil value.
type AnswerPersister interface {
	PersistAnswer(ctx context.Context, identity string, fields map[string]any) error
}

// EventRecorder records lifecycle and milestone events.
type EventRecorder interface {
	RecordEvent(ctx context.Context, name, identity string, details map[string]any) error
}

// ResumeMailer emails a link that resumes the session at stage with the given answers.
type ResumeMailer interface {
	EmailResumeLink(ctx context.Context, email string, stage int, answers map[string]any) error
}

// ResumeLink is a save-for-later request as delivered by a ResumeMailer.
type ResumeLink struct {
	Email   string         `json:"email"`
	Stage   int            `json:"stage"`
	Answers map[string]any `json:"answers"`
	SentAt  time.Time      `json:"sent_at"`
}
