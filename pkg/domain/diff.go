package domain

import (
	"reflect"
)

// SessionDiff represents the changes between two sessions.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Stage       *int            `json:"stage,omitempty"`
	Score       *Score          `json:"score,omitempty"`
	Lifecycle   *LifecycleState `json:"lifecycle,omitempty"`
	BackEnabled *bool           `json:"back_enabled,omitempty"`

	// Answers contains only changed, added or deleted fields.
	// For deletions, the key is present with a nil value.
	Answers map[string]any `json:"answers,omitempty"`

	// Transcript holds entries appended since the old session. When the
	// transcript shrank (back navigation, timeout) Truncated is set and
	// Transcript holds the full new transcript.
	Transcript []TranscriptEntry `json:"transcript,omitempty"`
	Truncated  bool              `json:"truncated,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession.
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	if oldSession == nil || oldSession.Stage != newSession.Stage {
		diff.Stage = &newSession.Stage
	}
	if oldSession == nil || oldSession.Score != newSession.Score {
		diff.Score = &newSession.Score
	}
	if oldSession == nil || oldSession.Lifecycle.State != newSession.Lifecycle.State {
		diff.Lifecycle = &newSession.Lifecycle.State
	}
	if oldSession == nil || oldSession.BackEnabled != newSession.BackEnabled {
		diff.BackEnabled = &newSession.BackEnabled
	}

	var oldAnswers Answers
	if oldSession != nil {
		oldAnswers = oldSession.Answers
	}
	diff.Answers = DiffAnswers(oldAnswers, newSession.Answers)

	diff.Transcript, diff.Truncated = diffTranscript(oldSession, newSession)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// DiffAnswers returns the fields whose values differ between old and new.
// Removed fields map to nil.
func DiffAnswers(old, new Answers) map[string]any {
	before := old.Fields()
	after := new.Fields()
	delta := make(map[string]any)

	for k, newVal := range after {
		oldVal, exists := before[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}
	for k := range before {
		if _, exists := after[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffTranscript(old, new *Session) ([]TranscriptEntry, bool) {
	if old == nil {
		if len(new.Transcript) == 0 {
			return nil, false
		}
		return new.Transcript, false
	}
	oldLen, newLen := len(old.Transcript), len(new.Transcript)
	switch {
	case newLen > oldLen:
		return new.Transcript[oldLen:], false
	case newLen < oldLen:
		return new.Transcript, true
	}
	return nil, false
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.Stage == nil &&
		d.Score == nil &&
		d.Lifecycle == nil &&
		d.BackEnabled == nil &&
		len(d.Answers) == 0 &&
		len(d.Transcript) == 0 &&
		!d.Truncated
}
