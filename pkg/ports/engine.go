package ports

import (
	"context"

	"github.com/aretw0/actbot/pkg/domain"
)

// Interviewer is the stateless interview state machine. Every call takes a session
// and returns a new one; callers own persistence and serialization per session.
// This is the interface used by adapters (HTTP, MCP, CLI) through the session service.
type Interviewer interface {
	Start(ctx context.Context, opts domain.StartOptions) (*domain.Session, *domain.Outcome)
	Resume(ctx context.Context, opts domain.ResumeOptions) (*domain.Session, *domain.Outcome, error)
	SubmitAnswer(ctx context.Context, s *domain.Session, raw string) (*domain.Session, *domain.Outcome, error)
	GoBack(ctx context.Context, s *domain.Session) (*domain.Session, *domain.Outcome, error)
	AcceptTerms(ctx context.Context, s *domain.Session) (*domain.Session, *domain.Outcome, error)
	Help(ctx context.Context, s *domain.Session) *domain.Outcome
	SaveForLater(ctx context.Context, s *domain.Session) *domain.Outcome
	Prompt(s *domain.Session) domain.StagePrompt

	// Nudge and Expire act only when token is still the session's activity token.
	Nudge(ctx context.Context, s *domain.Session, token uint64) (*domain.Session, *domain.Outcome, bool)
	Expire(ctx context.Context, s *domain.Session, token uint64) (*domain.Session, *domain.Outcome, bool)
}
