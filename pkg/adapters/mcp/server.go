package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/actbot/internal/logging"
	"github.com/aretw0/actbot/internal/runtime"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/session"
)

// StagesURI is the resource listing the interview stages.
const StagesURI = "actbot://stages"

// SessionResponse provides a unified structure across adapters.
type SessionResponse struct {
	Session *domain.Session    `json:"session,omitempty" jsonschema_description:"The interview session after the call"`
	Prompt  domain.StagePrompt `json:"prompt" jsonschema_description:"The question to show next"`
	Replies []string           `json:"replies,omitempty" jsonschema_description:"Bot replies produced by the call"`
	Notices []string           `json:"notices,omitempty" jsonschema_description:"Transient notices produced by the call"`
	Error   string             `json:"error,omitempty" jsonschema_description:"Why the call was refused, if it was"`
}

// StartArgs are the arguments of start_session.
type StartArgs struct {
	SessionID string `json:"session_id,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// SessionArgs identify a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// AnswerArgs are the arguments of submit_answer.
type AnswerArgs struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// Server exposes the interview service as an MCP Server.
type Server struct {
	service   *session.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc *session.Service, version string, opts ...Option) *Server {
	s := &Server{
		service:   svc,
		mcpServer: server.NewMCPServer("actbot-mcp", version, server.WithToolCapabilities(false), server.WithResourceCapabilities(false, false)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new A.C.T. interview at stage 1."),
		mcp.WithString("session_id", mcp.Description("Session ID to use (optional, generated when omitted)")),
		mcp.WithString("referrer", mcp.Description("Name of the friend who referred the user (optional)")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("submit_answer",
		mcp.WithDescription("Answer the current question of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("answer", mcp.Required(), mcp.Description("The user's answer")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleSubmit))

	s.mcpServer.AddTool(mcp.NewTool("go_back",
		mcp.WithDescription("Return to the previous question when back navigation is enabled."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleBack))

	s.mcpServer.AddTool(mcp.NewTool("accept_terms",
		mcp.WithDescription("Record acceptance of the Terms of Service and NDA."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleTerms))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get a session and its current question."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleGet))
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args StartArgs) (SessionResponse, error) {
	res, err := s.service.Start(ctx, domain.StartOptions{SessionID: args.SessionID, Referrer: args.Referrer})
	return s.respond("start_session", res, err)
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args AnswerArgs) (SessionResponse, error) {
	if args.SessionID == "" {
		return SessionResponse{}, errMissingSessionID
	}
	res, err := s.service.Submit(ctx, args.SessionID, args.Answer)
	return s.respond("submit_answer", res, err)
}

func (s *Server) handleBack(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResponse, error) {
	if args.SessionID == "" {
		return SessionResponse{}, errMissingSessionID
	}
	res, err := s.service.Back(ctx, args.SessionID)
	return s.respond("go_back", res, err)
}

func (s *Server) handleTerms(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResponse, error) {
	if args.SessionID == "" {
		return SessionResponse{}, errMissingSessionID
	}
	res, err := s.service.AcceptTerms(ctx, args.SessionID)
	return s.respond("accept_terms", res, err)
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResponse, error) {
	if args.SessionID == "" {
		return SessionResponse{}, errMissingSessionID
	}
	res, err := s.service.Get(ctx, args.SessionID)
	return s.respond("get_session", res, err)
}

var errMissingSessionID = errors.New("session_id is required")

// respond turns a service result into a tool response. Refusals that still
// carry a session, such as rejected answers, are reported in Error.
func (s *Server) respond(tool string, res *session.Result, err error) (SessionResponse, error) {
	if res == nil {
		if err == nil {
			err = domain.ErrSessionNotFound
		}
		s.logger.Warn("MCP tool failed", "tool", tool, "error", err)
		return SessionResponse{}, err
	}
	resp := SessionResponse{Session: res.Session, Prompt: res.Prompt}
	if res.Outcome != nil {
		resp.Replies = res.Outcome.Replies
		resp.Notices = res.Outcome.Notices
	}
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrLockedSession):
		resp.Error = runtime.MsgLockout
	case domain.UserMessage(err) != "":
		resp.Error = domain.UserMessage(err)
	default:
		resp.Error = err.Error()
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StagesURI, "Interview Stages",
		mcp.WithResourceDescription("The 18 interview stages with their questions and options"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(runtime.Stages[domain.FirstStage:])
		if err != nil {
			return nil, fmt.Errorf("failed to encode stages: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StagesURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
