// Package validator holds the answer validators used by the stage table.
package validator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Messages shown to the user on rejection.
const (
	MsgEmpty         = "Please provide an answer."
	MsgInvalidEmail  = "Please enter a valid email."
	MsgBusinessShort = "Please share your business, location, industry, and role (min 50 characters)."
	MsgDetailShort   = "Please add more detail (min 50 characters)."
	MsgInvalidOption = "Please choose one of the available options."
	MsgTooLong       = "Your answer is too long. Please shorten it."
)

// MinDetailLength is the minimum length of stage 2 answers and stage 5 elaborations.
const MinDetailLength = 50

// MaxAnswerLength bounds any single answer.
const MaxAnswerLength = 4096

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validator checks an answer and returns a user-facing message when it is rejected.
type Validator func(answer string) (string, bool)

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Email accepts only email addresses.
func Email(answer string) (string, bool) {
	if !IsEmail(strings.TrimSpace(answer)) {
		return MsgInvalidEmail, false
	}
	return "", true
}

// MinLength rejects answers shorter than n characters with msg.
func MinLength(n int, msg string) Validator {
	return func(answer string) (string, bool) {
		if utf8.RuneCountInString(answer) < n {
			return msg, false
		}
		return "", true
	}
}

// OneOf accepts answers matching one of options, ignoring case and surrounding space.
func OneOf(options ...string) Validator {
	return func(answer string) (string, bool) {
		if _, ok := Canonical(answer, options); !ok {
			return MsgInvalidOption, false
		}
		return "", true
	}
}

// Canonical returns the option matching answer case-insensitively.
func Canonical(answer string, options []string) (string, bool) {
	a := strings.TrimSpace(answer)
	for _, opt := range options {
		if strings.EqualFold(a, opt) {
			return opt, true
		}
	}
	return "", false
}

// Sanitize trims the answer, strips control characters and enforces MaxAnswerLength.
func Sanitize(answer string) (string, error) {
	if len(answer) > MaxAnswerLength {
		return "", fmt.Errorf("answer exceeds %d bytes", MaxAnswerLength)
	}
	clean := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, answer)
	return strings.TrimSpace(clean), nil
}
