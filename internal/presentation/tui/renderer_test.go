package tui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/session"
)

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[----------]   0%", ProgressBar(0, 10))
	assert.Equal(t, "[#####-----]  50%", ProgressBar(50, 10))
	assert.Equal(t, "[##########] 100%", ProgressBar(130, 10))
	assert.Equal(t, "[----------]   0%", ProgressBar(-5, 10))
}

func TestChatView_Plain(t *testing.T) {
	var buf bytes.Buffer
	v := NewChatView(&buf, true)

	s := domain.NewSession("guest_1", time.Now())
	s.Error = "Please enter your name."
	v.Result(&session.Result{
		Session: s,
		Outcome: &domain.Outcome{Replies: []string{"Nice to meet you, **Ada**!"}, Notices: []string{"Saved"}},
		Prompt: domain.StagePrompt{
			Stage:    2,
			Label:    "Secure your success...",
			Question: "Add support calls?",
			Options:  []string{"1 Month ($300)", "No"},
			Progress: 10,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "A.C.T.: Nice to meet you, Ada!")
	assert.Contains(t, out, "  Saved")
	assert.Contains(t, out, "! Please enter your name.")
	assert.Contains(t, out, "Add support calls?")
	assert.Contains(t, out, "  1) 1 Month ($300)")
	assert.Contains(t, out, "  2) No")
	assert.Contains(t, out, "[##------------------]  10%")
}

func TestChatView_Update(t *testing.T) {
	var buf bytes.Buffer
	v := NewChatView(&buf, true)
	v.Update(session.Update{SessionID: "s", Outcome: &domain.Outcome{Notices: []string{"Still here, Ada?"}}})
	v.Update(session.Update{SessionID: "s"})
	assert.Equal(t, "  Still here, Ada?\n", buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "Assess. Commit. Transform.")
}
