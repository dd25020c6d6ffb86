package domain

import (
	"context"
	"time"
)

// Event names recorded through the EventRecorder collaborator.
const (
	EventInactivityNudgeSent = "InactivityNudgeSent"
	EventSessionTimeout      = "SessionTimeout"
	EventLockout             = "TooManyInvalidInputsLockout"
	EventBackButtonUsed      = "BackButtonUsed"
	EventHelpButtonClicked   = "HelpButtonClicked"
	EventSaveForLaterUsed    = "SaveForLaterUsed"
	EventPurchaseConfirmed   = "PurchaseConfirmed"
	EventPostPurchaseThanks  = "EmailSent_PostPurchaseThankYou"
	EventReviewNudge         = "EmailSent_ReviewNudge1"
	EventFAQOpened           = "FAQOpened"
	EventTermsAccepted       = "TermsAccepted"
)

// EffectKind categorizes a SideEffect.
type EffectKind string

const (
	EffectPersistAnswer   EffectKind = "persist_answer"
	EffectRecordEvent     EffectKind = "record_event"
	EffectRedirect        EffectKind = "redirect"
	EffectExternalPage    EffectKind = "external_page"
	EffectEmailResumeLink EffectKind = "email_resume_link"
)

// SideEffect is an instruction produced by a transition and carried out by the host.
// The state machine itself never performs I/O.
type SideEffect struct {
	Kind    EffectKind     `json:"kind"`
	Event   string         `json:"event,omitempty"`
	URL     string         `json:"url,omitempty"`
	Delta   map[string]any `json:"delta,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// RecordEvent builds an event side effect.
func RecordEvent(name string, details map[string]any) SideEffect {
	return SideEffect{Kind: EffectRecordEvent, Event: name, Details: details}
}

// Sound is the feedback cue selected for a transition.
type Sound string

const (
	SoundNone      Sound = ""
	SoundWhistle   Sound = "whistle"
	SoundChaChing  Sound = "cha_ching"
	SoundStopwatch Sound = "stopwatch"
	SoundCheering  Sound = "cheering"
)

// Outcome describes what a single operation produced besides the new session.
type Outcome struct {
	Replies  []string               `json:"replies,omitempty"`
	Notices  []string               `json:"notices,omitempty"`
	Sound    Sound                  `json:"sound,omitempty"`
	Effects  []SideEffect           `json:"effects,omitempty"`
	Failures []*ExternalCallFailure `json:"-"`
}

// Emit appends side effects to the outcome.
func (o *Outcome) Emit(effects ...SideEffect) {
	o.Effects = append(o.Effects, effects...)
}

// StageEvent describes a processed answer.
type StageEvent struct {
	Timestamp time.Time
	SessionID string
	FromStage int
	ToStage   int
	Delta     Score
	Err       error
}

// LifecycleEvent describes a liveness transition (nudge, timeout, lockout, completion).
type LifecycleEvent struct {
	Timestamp time.Time
	SessionID string
	Stage     int
	State     LifecycleState
	Score     Score
	Tier      string
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnAnswerAccepted func(context.Context, *StageEvent)
	OnAnswerRejected func(context.Context, *StageEvent)
	OnBack           func(context.Context, *StageEvent)
	OnLifecycle      func(context.Context, *LifecycleEvent)
}

// Merge returns hooks invoking h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnAnswerAccepted: chainStage(h.OnAnswerAccepted, other.OnAnswerAccepted),
		OnAnswerRejected: chainStage(h.OnAnswerRejected, other.OnAnswerRejected),
		OnBack:           chainStage(h.OnBack, other.OnBack),
		OnLifecycle:      chainLifecycle(h.OnLifecycle, other.OnLifecycle),
	}
}

func chainStage(a, b func(context.Context, *StageEvent)) func(context.Context, *StageEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *StageEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainLifecycle(a, b func(context.Context, *LifecycleEvent)) func(context.Context, *LifecycleEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *LifecycleEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

// RecordedEvent is an event as stored by an EventRecorder.
type RecordedEvent struct {
	Name      string         `json:"name"`
	SessionID string         `json:"session_id"`
	Details   map[string]any `json:"details,omitempty"`
	At        time.Time      `json:"at"`
}
