package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/actbot/internal/config"
	"github.com/aretw0/actbot/internal/runtime"
	"github.com/aretw0/actbot/pkg/adapters/memory"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/handoff"
	"github.com/aretw0/actbot/pkg/session"
)

func newService(t *testing.T) *session.Service {
	t.Helper()
	engine := runtime.NewEngine(runtime.WithPacing(0, 0))
	svc := session.NewService(engine, session.NewManager(memory.NewStore()))
	t.Cleanup(svc.Close)
	return svc
}

func TestChat_AnswersAndQuits(t *testing.T) {
	svc := newService(t)
	var out bytes.Buffer

	err := Chat(context.Background(), svc, ChatOptions{
		In:        strings.NewReader("ada\n/back\n/quit\n"),
		Out:       &out,
		Plain:     true,
		SessionID: "guest_chat",
		Referrer:  "Sam",
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Sam")
	assert.Contains(t, text, "What's your name?")
	assert.Contains(t, text, runtime.Stages[2].Question)
	assert.Contains(t, text, "! ")
	assert.Contains(t, text, "Bye! Session 'guest_chat' is saved.")

	res, err := svc.Get(context.Background(), "guest_chat")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Session.Stage)
	assert.Equal(t, "Ada", res.Session.Answers.FirstName)
}

func TestChat_ReopensExistingSession(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Start(ctx, domain.StartOptions{SessionID: "guest_again"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "guest_again", "ada")
	require.NoError(t, err)

	var out bytes.Buffer
	err = Chat(ctx, svc, ChatOptions{
		In:        strings.NewReader(""),
		Out:       &out,
		Plain:     true,
		Quiet:     true,
		SessionID: "guest_again",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), runtime.Stages[2].Question)
	assert.NotContains(t, out.String(), ">>>")
}

func TestChat_LockoutEndsConversation(t *testing.T) {
	svc := newService(t)
	var out bytes.Buffer

	input := strings.Repeat("\n", runtime.DefaultMaxInvalidInputs) + "ada\n"
	err := Chat(context.Background(), svc, ChatOptions{
		In:        strings.NewReader(input),
		Out:       &out,
		Plain:     true,
		SessionID: "guest_locked",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), runtime.MsgLockout)
	assert.Contains(t, out.String(), "ended: locked")

	res, err := svc.Get(context.Background(), "guest_locked")
	require.NoError(t, err)
	assert.True(t, res.Session.Locked())
	assert.Empty(t, res.Session.Answers.FirstName)
}

func TestChat_ResumeToken(t *testing.T) {
	svc := newService(t)
	token, err := handoff.EncodeToken(7, domain.Answers{
		FirstName: "Ada",
		Email:     "ada@example.com",
	})
	require.NoError(t, err)

	var out bytes.Buffer
	err = Chat(context.Background(), svc, ChatOptions{
		In:          strings.NewReader("/quit\n"),
		Out:         &out,
		Plain:       true,
		Quiet:       true,
		SessionID:   "guest_resumed",
		ResumeToken: token,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), runtime.Stages[7].Question)

	res, err := svc.Get(context.Background(), "guest_resumed")
	require.NoError(t, err)
	assert.Equal(t, 7, res.Session.Stage)
}

func TestChat_CancelledContext(t *testing.T) {
	svc := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)

	// A reader that never ends; only the context can stop the loop.
	r, w := io.Pipe()
	defer w.Close()

	err := Chat(ctx, svc, ChatOptions{In: r, Out: &bytes.Buffer{}, Plain: true, Quiet: true})
	assert.NoError(t, err)
}

func TestResolveOption(t *testing.T) {
	choice := domain.StagePrompt{Options: []string{"Starter", "Growth", "Premium"}}
	assert.Equal(t, "Growth", resolveOption("2", choice))
	assert.Equal(t, "4", resolveOption("4", choice))
	assert.Equal(t, "Premium", resolveOption("Premium", choice))

	hybrid := domain.StagePrompt{Options: []string{"Yes", "No"}, FreeText: true}
	assert.Equal(t, "1", resolveOption("1", hybrid))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LogConfig{Level: "warn", Format: "json"}, false)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), -4))

	logger, err = NewLogger(config.LogConfig{Level: "warn"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), -4))

	_, err = NewLogger(config.LogConfig{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.Error(t, handleExecutionError(domain.ErrSessionNotFound))
}
