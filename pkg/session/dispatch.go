package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/actbot/internal/logging"
	"github.com/aretw0/actbot/internal/runtime"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/ports"
)

// Dispatcher carries out the side effects of an outcome against the collaborators.
// Every call is best effort: a failure is logged and attached to the outcome, and
// never undoes the transition that produced it.
type Dispatcher struct {
	persister ports.AnswerPersister
	recorder  ports.EventRecorder
	mailer    ports.ResumeMailer
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. Any collaborator may be nil, which skips its effects.
func NewDispatcher(persister ports.AnswerPersister, recorder ports.EventRecorder, mailer ports.ResumeMailer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{persister: persister, recorder: recorder, mailer: mailer, logger: logger}
}

// Dispatch runs the effects of out for session s in order.
// Failed calls other than the resume mail, which has its own notice, add one
// MsgProcessingFailed notice to the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, s *domain.Session, out *domain.Outcome) {
	if out == nil || s == nil {
		return
	}
	identity := s.Identity()
	generic := false
	for _, eff := range out.Effects {
		var err error
		var call string
		switch eff.Kind {
		case domain.EffectPersistAnswer:
			call = "persistAnswer"
			if d.persister != nil {
				err = d.persister.PersistAnswer(ctx, identity, eff.Delta)
			}
		case domain.EffectRecordEvent:
			call = "recordEvent"
			if d.recorder != nil {
				err = d.recorder.RecordEvent(ctx, eff.Event, identity, eff.Details)
			}
		case domain.EffectEmailResumeLink:
			call = "emailResumeLink"
			if d.mailer != nil {
				err = d.emailResumeLink(ctx, eff)
			}
			if err != nil {
				out.Notices = replaceNotice(out.Notices, runtime.ResumeLinkSent(s.Answers.Email), runtime.MsgSaveFailed)
			}
		default:
			// Redirects and external pages are rendered by the host.
			continue
		}
		if err != nil {
			failure := &domain.ExternalCallFailure{Call: call, Err: err}
			out.Failures = append(out.Failures, failure)
			d.logger.WarnContext(ctx, "collaborator call failed",
				"session_id", s.ID, "call", call, "event", eff.Event, "error", err)
			if eff.Kind != domain.EffectEmailResumeLink {
				generic = true
			}
		}
	}
	if generic {
		out.Notices = append(out.Notices, runtime.MsgProcessingFailed)
	}
}

func (d *Dispatcher) emailResumeLink(ctx context.Context, eff domain.SideEffect) error {
	email, _ := eff.Details["email"].(string)
	stage, _ := eff.Details["stage"].(int)
	answers, _ := eff.Details["answers"].(map[string]any)
	if email == "" {
		return fmt.Errorf("resume link without email")
	}
	return d.mailer.EmailResumeLink(ctx, email, stage, answers)
}

func replaceNotice(notices []string, old, replacement string) []string {
	out := make([]string, 0, len(notices))
	for _, n := range notices {
		if n == old {
			n = replacement
		}
		out = append(out, n)
	}
	return out
}
