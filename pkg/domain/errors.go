package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned when a new session would overwrite a stored one.
var ErrSessionExists = errors.New("session already exists")

// ErrLockedSession is returned for any input submitted after a lockout.
var ErrLockedSession = errors.New("session locked after repeated invalid input")

// ErrLifecycleExpired is reported when the inactivity timeout reset the session.
var ErrLifecycleExpired = errors.New("session expired after inactivity")

// ErrSessionCompleted is returned when input arrives after the terminal stage.
var ErrSessionCompleted = errors.New("session already completed")

// ErrBackNotAllowed is returned when back-navigation is requested outside its range.
var ErrBackNotAllowed = errors.New("back navigation not allowed at this stage")

// ValidationError reports an empty, too short or malformed answer.
type ValidationError struct {
	Stage   int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("stage %d: %s", e.Stage, e.Message)
}

// GuardRejection reports a stage precondition that was not met.
type GuardRejection struct {
	Stage   int
	Guard   string
	Message string
}

func (e *GuardRejection) Error() string {
	return fmt.Sprintf("stage %d: guard %s: %s", e.Stage, e.Guard, e.Message)
}

// ExternalCallFailure wraps a collaborator error. It never blocks advancement.
type ExternalCallFailure struct {
	Call string
	Err  error
}

func (e *ExternalCallFailure) Error() string {
	return fmt.Sprintf("external call %s failed: %v", e.Call, e.Err)
}

func (e *ExternalCallFailure) Unwrap() error {
	return e.Err
}

// IsInputRejection reports whether err counts against the invalid-input limit.
func IsInputRejection(err error) bool {
	var ve *ValidationError
	var gr *GuardRejection
	return errors.As(err, &ve) || errors.As(err, &gr)
}

// UserMessage returns the text to show the user for a rejection, or "" if err is not one.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var gr *GuardRejection
	if errors.As(err, &gr) {
		return gr.Message
	}
	return ""
}
