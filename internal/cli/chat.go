package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aretw0/actbot/internal/logging"
	"github.com/aretw0/actbot/internal/presentation/tui"
	"github.com/aretw0/actbot/internal/runtime"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/handoff"
	"github.com/aretw0/actbot/pkg/session"
)

// Chat commands. Anything else is submitted as an answer.
const (
	CommandBack  = "/back"
	CommandHelp  = "/help"
	CommandSave  = "/save"
	CommandTerms = "/terms"
	CommandQuit  = "/quit"
)

// ChatOptions configures a terminal conversation.
type ChatOptions struct {
	In     io.Reader
	Out    io.Writer
	Logger *slog.Logger

	// Plain disables markdown rendering and colours.
	Plain bool
	// Quiet hides the banner and system messages.
	Quiet bool

	SessionID   string
	Referrer    string
	ResumeToken string
}

// Chat runs the interview on a line-oriented terminal until the session
// completes, locks, the input ends or ctx is cancelled.
func Chat(ctx context.Context, svc *session.Service, opts ChatOptions) error {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := &chat{
		svc:    svc,
		view:   tui.NewChatView(opts.Out, opts.Plain),
		out:    opts.Out,
		quiet:  opts.Quiet,
		logger: opts.Logger,
	}
	if !opts.Quiet {
		tui.PrintBanner(opts.Out)
	}

	res, err := c.open(ctx, opts)
	if err != nil {
		return err
	}
	c.id = res.Session.ID
	if !opts.Quiet {
		printSystemMessage(c.out, "Session '%s' active. Commands: %s %s %s %s %s",
			c.id, CommandBack, CommandHelp, CommandSave, CommandTerms, CommandQuit)
	}
	c.show(res, nil)

	unsubscribe := svc.Subscribe(c.onUpdate)
	defer unsubscribe()

	lines := readLines(ctx, opts.In)
	for !c.finished(res) {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return handleExecutionError(ctx.Err())
		case line, ok = <-lines:
		}
		if !ok {
			c.system("Input closed. Session '%s' is saved.", c.id)
			return nil
		}
		line = strings.TrimSpace(line)
		if line == CommandQuit {
			c.system("Bye! Session '%s' is saved.", c.id)
			return nil
		}

		next, err := c.handle(ctx, line, res.Prompt)
		if next == nil && err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return err
			}
			c.show(nil, err)
			continue
		}
		c.show(next, err)
		res = next
	}

	if !opts.Quiet {
		c.system("Session '%s' ended: %s.", c.id, res.Session.Lifecycle.State)
	}
	return nil
}

type chat struct {
	svc    *session.Service
	view   *tui.ChatView
	out    io.Writer
	quiet  bool
	logger *slog.Logger
	id     string

	// mu serializes terminal output between replies and pushed updates.
	mu sync.Mutex
	// busy is set while a command runs; its own updates are printed by show.
	busy atomic.Bool
}

func (c *chat) open(ctx context.Context, opts ChatOptions) (*session.Result, error) {
	if opts.ResumeToken != "" {
		ro, err := handoff.DecodeToken(opts.ResumeToken)
		if err != nil {
			return nil, err
		}
		if ro.SessionID == "" {
			ro.SessionID = opts.SessionID
		}
		return c.svc.Resume(ctx, ro)
	}
	if opts.SessionID != "" {
		res, err := c.svc.Get(ctx, opts.SessionID)
		if err == nil {
			c.logger.Info("session resumed", "session_id", opts.SessionID, "stage", res.Session.Stage)
			return res, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
	}
	return c.svc.Start(ctx, domain.StartOptions{SessionID: opts.SessionID, Referrer: opts.Referrer})
}

func (c *chat) handle(ctx context.Context, line string, prompt domain.StagePrompt) (*session.Result, error) {
	c.busy.Store(true)
	defer c.busy.Store(false)
	switch line {
	case CommandBack:
		return c.svc.Back(ctx, c.id)
	case CommandHelp:
		return c.svc.Help(ctx, c.id)
	case CommandSave:
		return c.svc.SaveForLater(ctx, c.id)
	case CommandTerms:
		return c.svc.AcceptTerms(ctx, c.id)
	}
	return c.svc.Submit(ctx, c.id, resolveOption(line, prompt))
}

// resolveOption maps a numbered choice to its option text.
func resolveOption(line string, p domain.StagePrompt) string {
	if p.FreeText || len(p.Options) == 0 {
		return line
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(p.Options) {
		return line
	}
	return p.Options[n-1]
}

func (c *chat) finished(res *session.Result) bool {
	return res.Session.Completed() || res.Session.Locked()
}

func (c *chat) show(res *session.Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if errors.Is(err, domain.ErrLockedSession) {
		if res != nil && res.Outcome != nil {
			c.view.Messages(res.Outcome.Replies, res.Outcome.Notices)
		}
		c.view.Error(runtime.MsgLockout)
		return
	}
	// Rejected answers carry their message in the session; other refusals do not.
	if err == nil || (res != nil && res.Session.Error != "") {
		c.view.Result(res)
		return
	}
	if res != nil && res.Outcome != nil {
		c.view.Messages(res.Outcome.Replies, res.Outcome.Notices)
	}
	c.view.Error(userMessage(err))
	if res != nil && !res.Session.Completed() {
		c.view.Prompt(res.Prompt)
	}
}

func userMessage(err error) string {
	if msg := domain.UserMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}

func (c *chat) onUpdate(_ context.Context, u session.Update) {
	if u.SessionID != c.id || u.Outcome == nil || c.busy.Load() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Update(u)
}

func (c *chat) system(format string, args ...any) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	printSystemMessage(c.out, format, args...)
}

// readLines feeds lines from r until it ends or ctx is cancelled.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
