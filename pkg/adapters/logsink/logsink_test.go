package logsink_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/actbot/internal/logging"
	"github.com/aretw0/actbot/pkg/adapters/logsink"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/handoff"
)

func TestSink_LogsCalls(t *testing.T) {
	var buf bytes.Buffer
	sink := logsink.New(logging.NewWithWriter(&buf, slog.LevelInfo, logging.FormatJSON))
	ctx := context.Background()

	require.NoError(t, sink.PersistAnswer(ctx, "guest_1", map[string]any{"first_name": "Ada"}))
	require.NoError(t, sink.RecordEvent(ctx, domain.EventBackButtonUsed, "guest_1", map[string]any{"from": 6}))

	out := buf.String()
	assert.Contains(t, out, `"msg":"saving user data"`)
	assert.Contains(t, out, `"first_name":"Ada"`)
	assert.Contains(t, out, domain.EventBackButtonUsed)
}

func TestSink_ResumeLinkRoundTrip(t *testing.T) {
	sink := logsink.New(logging.NewNop(), logsink.WithResumeURL("https://example.com/bot?src=mail"))
	answers := domain.Answers{FirstName: "Grace", Email: "grace@example.com", Purchase: domain.TierGrowth}

	link, err := sink.ResumeLink(7, answers.Fields())
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "mail", u.Query().Get("src"))

	opts, err := handoff.DecodeToken(u.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, 7, opts.Stage)
	assert.Equal(t, answers, opts.Answers)
}

func TestSink_RefusesInvalidSnapshot(t *testing.T) {
	sink := logsink.New(logging.NewNop())
	err := sink.EmailResumeLink(context.Background(), "x@example.com", 2, map[string]any{"email": "x@example.com"})
	assert.ErrorIs(t, err, handoff.ErrInvalidSnapshot)
}
