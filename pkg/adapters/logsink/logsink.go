// Package logsink implements the collaborator ports by writing structured log records.
// It stands in for the answer database, analytics and mail service in development.
package logsink

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/aretw0/actbot/pkg/handoff"
)

// DefaultResumeURL is the page a resume link points at.
const DefaultResumeURL = "http://localhost:8080/sessions/resume"

// Sink logs every collaborator call.
type Sink struct {
	logger    *slog.Logger
	resumeURL string
}

// Option configures the Sink.
type Option func(*Sink)

// WithResumeURL sets the base URL of emailed resume links.
func WithResumeURL(u string) Option {
	return func(s *Sink) {
		if u != "" {
			s.resumeURL = u
		}
	}
}

// New creates a sink writing to logger.
func New(logger *slog.Logger, opts ...Option) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sink{logger: logger.With("component", "collaborator"), resumeURL: DefaultResumeURL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PersistAnswer logs the changed fields.
func (s *Sink) PersistAnswer(ctx context.Context, identity string, fields map[string]any) error {
	s.logger.InfoContext(ctx, "saving user data", "user_id", identity, "fields", fields)
	return nil
}

// RecordEvent logs the event.
func (s *Sink) RecordEvent(ctx context.Context, name, identity string, details map[string]any) error {
	s.logger.InfoContext(ctx, "logging bot event", "event", name, "user_id", identity, "details", details)
	return nil
}

// EmailResumeLink logs the link that would be emailed.
func (s *Sink) EmailResumeLink(ctx context.Context, email string, stage int, answers map[string]any) error {
	link, err := s.ResumeLink(stage, answers)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "emailing resume link", "email", email, "stage", stage, "link", link)
	return nil
}

// ResumeLink builds the URL carrying a handoff token for stage and answers.
func (s *Sink) ResumeLink(stage int, answers map[string]any) (string, error) {
	opts, err := handoff.ResumeOptions("", stage, handoff.Snapshot(answers))
	if err != nil {
		return "", fmt.Errorf("refusing to mail resume link: %w", err)
	}
	token, err := handoff.EncodeToken(opts.Stage, opts.Answers)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(s.resumeURL)
	if err != nil {
		return "", fmt.Errorf("invalid resume url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
