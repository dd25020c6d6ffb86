package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/session"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ChatView prints service results as a terminal conversation.
type ChatView struct {
	out    io.Writer
	render func(string) (string, error)
	plain  bool
}

// NewChatView creates a view writing to out. Plain views skip markdown
// rendering and colours, for pipes and tests.
func NewChatView(out io.Writer, plain bool) *ChatView {
	v := &ChatView{out: out, plain: plain}
	if !plain {
		v.render = NewRenderer()
	}
	return v
}

// Result prints the replies, notices and the next prompt of res.
func (v *ChatView) Result(res *session.Result) {
	if res == nil {
		return
	}
	if res.Outcome != nil {
		v.Messages(res.Outcome.Replies, res.Outcome.Notices)
	}
	if res.Session != nil && res.Session.Error != "" {
		v.Error(res.Session.Error)
	}
	if res.Session == nil || !res.Session.Completed() {
		v.Prompt(res.Prompt)
	}
}

// Update prints messages pushed by the service, such as inactivity nudges.
func (v *ChatView) Update(u session.Update) {
	if u.Outcome != nil {
		v.Messages(u.Outcome.Replies, u.Outcome.Notices)
	}
}

// Messages prints bot replies followed by notices.
func (v *ChatView) Messages(replies, notices []string) {
	for _, r := range replies {
		v.markdown("**A.C.T.:** " + r)
	}
	for _, n := range notices {
		fmt.Fprintln(v.out, v.faint("  "+n))
	}
}

// Error prints a rejection message.
func (v *ChatView) Error(msg string) {
	if v.plain {
		fmt.Fprintln(v.out, "! "+msg)
		return
	}
	p := termenv.ColorProfile()
	fmt.Fprintln(v.out, termenv.String("! "+msg).Foreground(p.Color("#f87171")))
}

// Prompt prints the question, its options and the progress bar.
func (v *ChatView) Prompt(p domain.StagePrompt) {
	fmt.Fprintf(v.out, "%s %s\n", ProgressBar(p.Progress, 20), v.faint(p.Label))
	fmt.Fprintln(v.out, p.Question)
	for i, opt := range p.Options {
		fmt.Fprintf(v.out, "  %d) %s\n", i+1, opt)
	}
	if p.Placeholder != "" {
		fmt.Fprintln(v.out, v.faint("  "+p.Placeholder))
	}
}

func (v *ChatView) markdown(md string) {
	if v.plain {
		fmt.Fprintln(v.out, strings.ReplaceAll(md, "**", ""))
		return
	}
	rendered, err := v.render(md)
	if err != nil {
		rendered = md + "\n"
	}
	fmt.Fprint(v.out, rendered)
}

func (v *ChatView) faint(s string) string {
	if v.plain {
		return s
	}
	return termenv.String(s).Faint().String()
}

// ProgressBar draws progress (0-100) as a bar of the given width.
func ProgressBar(progress, width int) string {
	progress = min(max(progress, 0), 100)
	filled := progress * width / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat("-", width-filled), progress)
}
