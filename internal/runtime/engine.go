package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/actbot/internal/logging"
	"github.com/aretw0/actbot/internal/validator"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/ports"
	"github.com/aretw0/actbot/pkg/scoring"
)

var _ ports.Interviewer = (*Engine)(nil)

// Default engine settings.
const (
	DefaultBypassToken      = "ACTFAST"
	DefaultMaxInvalidInputs = 3
	DefaultAnswerPacing     = time.Second
	DefaultCompletionPacing = 1500 * time.Millisecond
)

// External destinations handed to the host through side effects.
const (
	MembersRedirectURL = "/members?startBotAt=4"
	FAQURL             = "/faq"
)

// Turn carries one answer through validation, parsing, transition and scoring.
type Turn struct {
	Raw    string
	Answer string
	// Session is the working copy. Parsers write into it.
	Session  *domain.Session
	Now      time.Time
	Keywords []string

	Bypass     bool
	Declined   bool
	Registered bool
}

// Engine is the interview state machine. It is stateless: every operation takes a
// session and returns a new one, leaving the input untouched.
type Engine struct {
	clock            func() time.Time
	sleep            func(time.Duration)
	answerPacing     time.Duration
	completionPacing time.Duration
	hooks            domain.LifecycleHooks
	logger           *slog.Logger
	bypassToken      string
	maxInvalid       int
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithPacing sets the delay before a reply and the extra delay before the completion summary.
func WithPacing(answer, completion time.Duration) EngineOption {
	return func(e *Engine) {
		e.answerPacing = answer
		e.completionPacing = completion
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithBypassToken sets the stage 1 answer that jumps straight to checkout.
func WithBypassToken(token string) EngineOption {
	return func(e *Engine) {
		e.bypassToken = token
	}
}

// WithMaxInvalidInputs sets how many consecutive rejections lock a session.
func WithMaxInvalidInputs(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxInvalid = n
		}
	}
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		clock:            time.Now,
		sleep:            time.Sleep,
		answerPacing:     DefaultAnswerPacing,
		completionPacing: DefaultCompletionPacing,
		logger:           logging.NewNop(),
		bypassToken:      DefaultBypassToken,
		maxInvalid:       DefaultMaxInvalidInputs,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// pace blocks for d. It deliberately ignores context cancellation.
func (e *Engine) pace(d time.Duration) {
	if d > 0 {
		e.sleep(d)
	}
}

// NewSessionID returns a fresh guest identifier.
func NewSessionID() string {
	return "guest_" + uuid.NewString()
}

// Start opens a session at stage 1 with the greeting in its transcript.
func (e *Engine) Start(ctx context.Context, opts domain.StartOptions) (*domain.Session, *domain.Outcome) {
	id := opts.SessionID
	if id == "" {
		id = NewSessionID()
	}
	s := domain.NewSession(id, e.clock())
	s.Answers.ReferrerName = opts.Referrer
	s.Progress = progressStart
	greeting := Greeting(opts.Referrer)
	s.Say(domain.RoleBot, greeting)

	e.logger.DebugContext(ctx, "session started", "session_id", id, "referred", opts.Referrer != "")
	return s, &domain.Outcome{Replies: []string{greeting}, Sound: domain.SoundWhistle}
}

// Resume opens a session at a stage of at least 4 from previously collected answers.
// Terms are considered accepted since registration already happened.
func (e *Engine) Resume(ctx context.Context, opts domain.ResumeOptions) (*domain.Session, *domain.Outcome, error) {
	if opts.Stage < domain.ResumeStage || opts.Stage > domain.LastStage {
		return nil, nil, &domain.ValidationError{
			Stage:   opts.Stage,
			Message: fmt.Sprintf("sessions resume at stage %d to %d", domain.ResumeStage, domain.LastStage),
		}
	}
	id := opts.SessionID
	if id == "" {
		id = NewSessionID()
	}
	s := domain.NewSession(id, e.clock())
	s.Answers = opts.Answers
	s.Answers.Q5Keywords = append([]string(nil), opts.Answers.Q5Keywords...)
	s.Stage = opts.Stage
	s.Lifecycle.TosAccepted = true
	s.BackEnabled = domain.BackEnabled(opts.Stage)
	s.Progress = max(progressResume, opts.Stage*5)
	msg := WelcomeBack(s.Answers)
	s.Say(domain.RoleBot, msg)

	e.logger.DebugContext(ctx, "session resumed", "session_id", id, "stage", opts.Stage)
	return s, &domain.Outcome{Replies: []string{msg}, Sound: domain.SoundWhistle}, nil
}

// SubmitAnswer processes raw as the answer to the current stage.
//
// A rejected answer returns a copy of the session with only the error message and
// the invalid input counter changed. The error is a *domain.ValidationError or a
// *domain.GuardRejection, wrapped with domain.ErrLockedSession when the rejection
// locked the session.
func (e *Engine) SubmitAnswer(ctx context.Context, s *domain.Session, raw string) (*domain.Session, *domain.Outcome, error) {
	if s == nil {
		return nil, nil, domain.ErrSessionNotFound
	}
	switch s.Lifecycle.State {
	case domain.LifecycleLocked:
		return s, &domain.Outcome{Notices: []string{MsgLockout}}, domain.ErrLockedSession
	case domain.LifecycleCompleted:
		return s, &domain.Outcome{}, domain.ErrSessionCompleted
	}

	now := e.clock()
	base := reactivate(s)
	def := Stage(base.Stage)
	t := &Turn{Raw: raw, Session: base.Clone(), Now: now}

	answer, err := validator.Sanitize(raw)
	if err != nil {
		return e.rejectTurn(ctx, base, &domain.ValidationError{Stage: base.Stage, Message: validator.MsgTooLong})
	}
	t.Answer = answer

	if rej := e.check(t, def); rej != nil {
		return e.rejectTurn(ctx, base, rej)
	}
	if def.Parse != nil {
		if rej := def.Parse(t); rej != nil {
			return e.rejectTurn(ctx, base, rej)
		}
	}

	return e.accept(ctx, base, t)
}

func reactivate(s *domain.Session) *domain.Session {
	switch s.Lifecycle.State {
	case domain.LifecycleTimedOut, domain.LifecycleDeclined:
		c := s.Clone()
		c.Lifecycle.State = domain.LifecycleActive
		c.Lifecycle.Active = true
		return c
	}
	return s
}

func (e *Engine) check(t *Turn, def StageDefinition) error {
	stage := t.Session.Stage
	if t.Answer == "" && def.Kind.RequiresText() {
		return &domain.ValidationError{Stage: stage, Message: validator.MsgEmpty}
	}
	if stage == domain.FirstStage && e.bypassToken != "" && strings.EqualFold(t.Answer, e.bypassToken) {
		t.Bypass = true
		return nil
	}
	if def.Validate != nil {
		if msg, ok := def.Validate(t.Answer); !ok {
			return &domain.ValidationError{Stage: stage, Message: msg}
		}
	}
	return nil
}

func (e *Engine) rejectTurn(ctx context.Context, s *domain.Session, cause error) (*domain.Session, *domain.Outcome, error) {
	next := s.Clone()
	next.Error = domain.UserMessage(cause)
	next.Lifecycle.InvalidInputCount++
	out := &domain.Outcome{}

	if e.hooks.OnAnswerRejected != nil {
		e.hooks.OnAnswerRejected(ctx, &domain.StageEvent{
			Timestamp: e.clock(),
			SessionID: s.ID,
			FromStage: s.Stage,
			ToStage:   s.Stage,
			Err:       cause,
		})
	}

	if next.Lifecycle.InvalidInputCount < e.maxInvalid {
		e.logger.DebugContext(ctx, "answer rejected",
			"session_id", s.ID, "stage", s.Stage, "invalid_inputs", next.Lifecycle.InvalidInputCount, "error", cause)
		return next, out, cause
	}

	next.Lifecycle.State = domain.LifecycleLocked
	next.Lifecycle.Active = false
	next.Error = MsgLockout
	next.BackEnabled = false
	next.Say(domain.RoleBot, MsgLockout)
	out.Replies = append(out.Replies, MsgLockout)
	out.Emit(domain.RecordEvent(domain.EventLockout, map[string]any{
		"stage":          s.Stage,
		"invalid_inputs": next.Lifecycle.InvalidInputCount,
	}))
	e.notifyLifecycle(ctx, next)
	e.logger.WarnContext(ctx, "session locked", "session_id", s.ID, "stage", s.Stage)
	return next, out, fmt.Errorf("%w: %w", domain.ErrLockedSession, cause)
}

func (e *Engine) accept(ctx context.Context, base *domain.Session, t *Turn) (*domain.Session, *domain.Outcome, error) {
	next := t.Session
	from := base.Stage
	to := Next(t)
	out := &domain.Outcome{}

	next.Say(domain.RoleUser, t.Answer)

	delta := domain.Score{}
	if t.Bypass {
		next.Score = domain.Score{}
	} else {
		keywords := t.Keywords
		if keywords == nil {
			keywords = scoring.Keywords(from, t.Answer)
		}
		delta = scoring.Delta(from, scoring.Input{Answer: t.Answer, Keywords: keywords, Prior: next.Score})
		next.Score = next.Score.Add(delta)
	}

	e.pace(e.answerPacing)
	for i, msg := range replies[from](t) {
		if i > 0 {
			e.pace(e.completionPacing)
		}
		next.Say(domain.RoleBot, msg)
		out.Replies = append(out.Replies, msg)
	}

	next.Stage = to
	next.Progress = progressFor(from, to)
	next.Error = ""
	next.Lifecycle.InvalidInputCount = 0
	touch(next, t.Now)
	next.BackEnabled = domain.BackEnabled(to)

	if fields := domain.DiffAnswers(base.Answers, next.Answers); fields != nil {
		out.Emit(domain.SideEffect{Kind: domain.EffectPersistAnswer, Delta: fields})
	}

	switch {
	case t.Registered:
		out.Emit(domain.SideEffect{Kind: domain.EffectRedirect, URL: MembersRedirectURL})
	case t.Declined:
		next.Lifecycle.State = domain.LifecycleDeclined
		next.Lifecycle.Active = false
		out.Emit(domain.SideEffect{Kind: domain.EffectExternalPage, URL: FAQURL})
	case from == 4 && t.Answer == OptionFAQ:
		out.Emit(
			domain.SideEffect{Kind: domain.EffectExternalPage, URL: FAQURL},
			domain.RecordEvent(domain.EventFAQOpened, map[string]any{"stage": from}),
		)
	}

	out.Sound = scoring.Cue(base.Score, next.Score)
	if from == domain.LastStage {
		e.complete(ctx, next, out)
	}

	if e.hooks.OnAnswerAccepted != nil {
		e.hooks.OnAnswerAccepted(ctx, &domain.StageEvent{
			Timestamp: t.Now,
			SessionID: next.ID,
			FromStage: from,
			ToStage:   to,
			Delta:     delta,
		})
	}
	e.logger.DebugContext(ctx, "answer accepted",
		"session_id", next.ID, "from", from, "to", to, "savings", next.Score.Savings, "hours", next.Score.Hours)
	return next, out, nil
}

func (e *Engine) complete(ctx context.Context, s *domain.Session, out *domain.Outcome) {
	s.Lifecycle.State = domain.LifecycleCompleted
	s.Lifecycle.Active = false
	s.BackEnabled = false
	out.Sound = domain.SoundCheering

	tier := s.Answers.Tier()
	out.Emit(
		domain.RecordEvent(domain.EventPurchaseConfirmed, map[string]any{
			"purchase": tier,
			"savings":  s.Score.Savings,
			"hours":    s.Score.Hours,
		}),
		domain.RecordEvent(domain.EventPostPurchaseThanks, map[string]any{"purchase": tier}),
		domain.RecordEvent(domain.EventReviewNudge, map[string]any{"purchase": tier}),
	)
	e.notifyLifecycle(ctx, s)
	e.logger.InfoContext(ctx, "session completed", "session_id", s.ID, "purchase", tier)
}

func touch(s *domain.Session, now time.Time) {
	s.Lifecycle.LastActivityAt = now
	s.Lifecycle.ActivityToken++
	if s.Lifecycle.State == domain.LifecycleNudged {
		s.Lifecycle.State = domain.LifecycleActive
	}
}

func (e *Engine) notifyLifecycle(ctx context.Context, s *domain.Session) {
	if e.hooks.OnLifecycle == nil {
		return
	}
	e.hooks.OnLifecycle(ctx, &domain.LifecycleEvent{
		Timestamp: e.clock(),
		SessionID: s.ID,
		Stage:     s.Stage,
		State:     s.Lifecycle.State,
		Score:     s.Score,
		Tier:      s.Answers.Tier(),
	})
}

// GoBack returns to the previous stage, dropping the last bot reply and the answer
// that produced it. Score and answers are kept.
func (e *Engine) GoBack(ctx context.Context, s *domain.Session) (*domain.Session, *domain.Outcome, error) {
	if s == nil {
		return nil, nil, domain.ErrSessionNotFound
	}
	if s.Locked() {
		return s, &domain.Outcome{}, domain.ErrLockedSession
	}
	if !s.BackEnabled || !domain.BackEnabled(s.Stage) {
		return s, &domain.Outcome{}, domain.ErrBackNotAllowed
	}

	now := e.clock()
	from := s.Stage
	next := s.Clone()
	next.Stage = from - 1
	next.Transcript = next.Transcript[:max(len(next.Transcript)-2, 0)]
	next.Progress = max(next.Progress-5, 0)
	next.BackEnabled = domain.BackEnabled(next.Stage)
	next.Error = ""
	touch(next, now)

	out := &domain.Outcome{}
	out.Emit(domain.RecordEvent(domain.EventBackButtonUsed, map[string]any{"from": from, "to": next.Stage}))

	if e.hooks.OnBack != nil {
		e.hooks.OnBack(ctx, &domain.StageEvent{Timestamp: now, SessionID: s.ID, FromStage: from, ToStage: next.Stage})
	}
	e.logger.DebugContext(ctx, "went back", "session_id", s.ID, "from", from, "to", next.Stage)
	return next, out, nil
}

// AcceptTerms records Terms of Service and NDA acceptance.
func (e *Engine) AcceptTerms(ctx context.Context, s *domain.Session) (*domain.Session, *domain.Outcome, error) {
	if s == nil {
		return nil, nil, domain.ErrSessionNotFound
	}
	if s.Locked() {
		return s, &domain.Outcome{}, domain.ErrLockedSession
	}
	out := &domain.Outcome{}
	if s.Lifecycle.TosAccepted {
		return s, out, nil
	}
	next := s.Clone()
	next.Lifecycle.TosAccepted = true
	touch(next, e.clock())
	out.Emit(domain.RecordEvent(domain.EventTermsAccepted, map[string]any{"stage": s.Stage}))
	e.logger.DebugContext(ctx, "terms accepted", "session_id", s.ID)
	return next, out, nil
}

// Help returns the help prompt and the contextual hint for the current stage.
func (e *Engine) Help(ctx context.Context, s *domain.Session) *domain.Outcome {
	out := &domain.Outcome{Notices: []string{MsgHelp}}
	if hint := Hint(s); hint != "" {
		out.Notices = append(out.Notices, hint)
	}
	out.Emit(domain.RecordEvent(domain.EventHelpButtonClicked, map[string]any{"stage": s.Stage}))
	return out
}

// SaveForLater asks the host to email a resume link. It needs a captured email.
func (e *Engine) SaveForLater(ctx context.Context, s *domain.Session) *domain.Outcome {
	out := &domain.Outcome{}
	if s.Answers.Email == "" {
		out.Notices = []string{MsgSaveNeedsEmail}
		return out
	}
	out.Notices = []string{ResumeLinkSent(s.Answers.Email)}
	out.Emit(
		domain.SideEffect{
			Kind: domain.EffectEmailResumeLink,
			Details: map[string]any{
				"email":   s.Answers.Email,
				"stage":   s.Stage,
				"answers": s.Answers.Fields(),
			},
		},
		domain.RecordEvent(domain.EventSaveForLaterUsed, map[string]any{"stage": s.Stage}),
	)
	return out
}

// Prompt describes the current question of s, with options resolved for the session.
func (e *Engine) Prompt(s *domain.Session) domain.StagePrompt {
	def := Stage(s.Stage)
	return domain.StagePrompt{
		Stage:       s.Stage,
		Kind:        def.Kind,
		Label:       def.Label,
		Question:    def.Question,
		Placeholder: def.Placeholder,
		Options:     Options(s),
		FreeText:    def.FreeText || def.Kind.RequiresText(),
		Progress:    s.Progress,
		BackEnabled: s.BackEnabled,
		Hint:        Hint(s),
	}
}

// Options returns the choices offered at the current stage of s.
// Stages 15 and 16 tailor their offer to the budget and urgency answers.
func Options(s *domain.Session) []string {
	a := s.Answers
	immediate := a.Urgency == UrgencyOptions[0]
	switch s.Stage {
	case 15:
		if a.Budget == BudgetOptions[2] || immediate {
			return []string{domain.TierPremium, OptionNoThanks}
		}
		return []string{domain.TierGrowth, OptionNoThanks}
	case 16:
		var opts []string
		switch {
		case a.Purchase == domain.TierPlay && a.Budget == BudgetOptions[1]:
			opts = append(opts, scoring.UpgradePrefix+domain.TierStarter)
		case immediate:
			opts = append(opts, scoring.UpgradePrefix+domain.TierGrowth)
		}
		return append(opts, "Keep "+a.Purchase)
	}
	return append([]string(nil), Stage(s.Stage).Options...)
}
