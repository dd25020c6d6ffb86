package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/actbot/internal/runtime"
	"github.com/aretw0/actbot/pkg/adapters/memory"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	engine := runtime.NewEngine(runtime.WithPacing(0, 0))
	svc := session.NewService(engine, session.NewManager(memory.NewStore()))
	t.Cleanup(svc.Close)
	return NewServer(svc, "test")
}

func TestTools_Interview(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	resp, err := s.handleStart(ctx, req, StartArgs{Referrer: "Sam"})
	require.NoError(t, err)
	require.NotNil(t, resp.Session)
	assert.Equal(t, 1, resp.Prompt.Stage)
	require.NotEmpty(t, resp.Replies)
	assert.Contains(t, resp.Replies[0], "Sam")
	id := resp.Session.ID

	resp, err = s.handleSubmit(ctx, req, AnswerArgs{SessionID: id, Answer: "ada"})
	require.NoError(t, err)
	assert.Empty(t, resp.Error)
	assert.Equal(t, 2, resp.Session.Stage)

	resp, err = s.handleBack(ctx, req, SessionArgs{SessionID: id})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Error)
	assert.Equal(t, 2, resp.Session.Stage)

	resp, err = s.handleTerms(ctx, req, SessionArgs{SessionID: id})
	require.NoError(t, err)
	assert.True(t, resp.Session.Lifecycle.TosAccepted)

	resp, err = s.handleGet(ctx, req, SessionArgs{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, "Ada", resp.Session.Answers.FirstName)
}

func TestTools_Rejection(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	resp, err := s.handleStart(ctx, req, StartArgs{})
	require.NoError(t, err)
	id := resp.Session.ID

	resp, err = s.handleSubmit(ctx, req, AnswerArgs{SessionID: id, Answer: ""})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Error)
	assert.Equal(t, resp.Session.Error, resp.Error)

	for i := 1; i < runtime.DefaultMaxInvalidInputs; i++ {
		resp, err = s.handleSubmit(ctx, req, AnswerArgs{SessionID: id, Answer: ""})
		require.NoError(t, err)
	}
	assert.Equal(t, runtime.MsgLockout, resp.Error)
	assert.Equal(t, domain.LifecycleLocked, resp.Session.Lifecycle.State)
}

func TestTools_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleGet(ctx, req, SessionArgs{SessionID: "guest_missing"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.handleSubmit(ctx, req, AnswerArgs{Answer: "ada"})
	assert.ErrorIs(t, err, errMissingSessionID)
}

func TestProtocol_ListToolsAndStages(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	call := func(method string, params any) map[string]any {
		t.Helper()
		msg := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
		if params != nil {
			msg["params"] = params
		}
		raw, err := json.Marshal(msg)
		require.NoError(t, err)
		reply := s.MCPServer().HandleMessage(ctx, raw)
		data, err := json.Marshal(reply)
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, json.Unmarshal(data, &out))
		require.Nil(t, out["error"], string(data))
		return out
	}

	call("initialize", map[string]any{
		"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "0"},
	})

	tools := call("tools/list", nil)
	data, err := json.Marshal(tools["result"])
	require.NoError(t, err)
	for _, name := range []string{"start_session", "submit_answer", "go_back", "accept_terms", "get_session"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}

	res := call("resources/read", map[string]any{"uri": StagesURI})
	result, ok := res["result"].(map[string]any)
	require.True(t, ok)
	contents, ok := result["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 1)
	text := contents[0].(map[string]any)["text"].(string)

	var stages []runtime.StageDefinition
	require.NoError(t, json.Unmarshal([]byte(text), &stages))
	require.Len(t, stages, domain.LastStage)
	assert.Equal(t, "What's your name?", stages[0].Question)
}
