package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/actbot/internal/logging"
	"github.com/aretw0/actbot/internal/runtime"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/handoff"
	"github.com/aretw0/actbot/pkg/session"
)

// Server exposes the interview service over HTTP.
type Server struct {
	Service *session.Service
	Streams *StreamManager

	metrics        http.Handler
	allowedOrigins []string
	version        string
	logger         *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithAllowedOrigins restricts CORS to the given origins. "*" or an empty list allows any.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a server and subscribes its stream manager to the service.
func NewServer(svc *session.Service, opts ...Option) *Server {
	s := &Server{
		Service: svc,
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	svc.Subscribe(s.Streams.Broadcast)
	return s
}

// NewHandler creates the HTTP handler for the service.
func NewHandler(svc *session.Service, opts ...Option) http.Handler {
	return NewServer(svc, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/stages", s.GetStages)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.StartSession)
		r.Post("/resume", s.ResumeSession)
		r.Get("/resume", s.ResumeSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/prompt", s.GetPrompt)
			r.Post("/answers", s.SubmitAnswer)
			r.Post("/back", s.GoBack)
			r.Post("/terms", s.AcceptTerms)
			r.Post("/help", s.Help)
			r.Post("/save", s.SaveForLater)
			r.Get("/events", s.SubscribeEvents)
			r.Get("/ws", s.ServeWebsocket)
		})
	})
	return r
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(s.allowedOrigins) == 0 || slices.Contains(s.allowedOrigins, "*"):
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.allowedOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Response is the body of every session endpoint. Error is set when the
// operation was refused; the session is still included when one exists.
type Response struct {
	*session.Result
	Error string `json:"error,omitempty"`
}

// StartRequest is the body of POST /sessions.
type StartRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// ResumeRequest is the body of POST /sessions/resume. Either Token or
// Stage and Answers must be set.
type ResumeRequest struct {
	SessionID string           `json:"session_id,omitempty"`
	Token     string           `json:"token,omitempty"`
	Stage     int              `json:"stage,omitempty"`
	Answers   handoff.Snapshot `json:"answers,omitempty"`
}

// AnswerRequest is the body of POST /sessions/{id}/answers.
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// StartSession handles POST /sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("StartSession: invalid request body", "error", err)
			return
		}
	}
	if body.Referrer == "" {
		body.Referrer = r.URL.Query().Get("ref")
	}
	res, err := s.Service.Start(r.Context(), domain.StartOptions{SessionID: body.SessionID, Referrer: body.Referrer})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, Response{Result: res})
}

// ResumeSession handles POST /sessions/resume and GET /sessions/resume?token=.
func (s *Server) ResumeSession(w http.ResponseWriter, r *http.Request) {
	var body ResumeRequest
	if r.Method == http.MethodGet {
		body.Token = r.URL.Query().Get("token")
	} else if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("ResumeSession: invalid request body", "error", err)
		return
	}

	var opts domain.ResumeOptions
	var err error
	if body.Token != "" {
		opts, err = handoff.DecodeToken(body.Token)
		opts.SessionID = body.SessionID
	} else {
		opts, err = handoff.ResumeOptions(body.SessionID, body.Stage, body.Answers)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.Service.Resume(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, Response{Result: res})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	res, err := s.Service.Get(r.Context(), chi.URLParam(r, "id"))
	s.writeResult(w, res, err)
}

// GetPrompt handles GET /sessions/{id}/prompt.
func (s *Server) GetPrompt(w http.ResponseWriter, r *http.Request) {
	res, err := s.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res.Prompt)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitAnswer handles POST /sessions/{id}/answers.
func (s *Server) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var body AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("SubmitAnswer: invalid request body", "error", err)
		return
	}
	res, err := s.Service.Submit(r.Context(), chi.URLParam(r, "id"), body.Answer)
	s.writeResult(w, res, err)
}

// GoBack handles POST /sessions/{id}/back.
func (s *Server) GoBack(w http.ResponseWriter, r *http.Request) {
	res, err := s.Service.Back(r.Context(), chi.URLParam(r, "id"))
	s.writeResult(w, res, err)
}

// AcceptTerms handles POST /sessions/{id}/terms.
func (s *Server) AcceptTerms(w http.ResponseWriter, r *http.Request) {
	res, err := s.Service.AcceptTerms(r.Context(), chi.URLParam(r, "id"))
	s.writeResult(w, res, err)
}

// Help handles POST /sessions/{id}/help.
func (s *Server) Help(w http.ResponseWriter, r *http.Request) {
	res, err := s.Service.Help(r.Context(), chi.URLParam(r, "id"))
	s.writeResult(w, res, err)
}

// SaveForLater handles POST /sessions/{id}/save.
func (s *Server) SaveForLater(w http.ResponseWriter, r *http.Request) {
	res, err := s.Service.SaveForLater(r.Context(), chi.URLParam(r, "id"))
	s.writeResult(w, res, err)
}

// GetStages handles GET /stages.
func (s *Server) GetStages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, runtime.Stages[domain.FirstStage:])
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "actbot-http",
		"version": strings.TrimSpace(s.version),
	})
}

// StatusCode maps the error taxonomy to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLockedSession):
		return http.StatusLocked
	case errors.Is(err, domain.ErrSessionCompleted), errors.Is(err, domain.ErrBackNotAllowed),
		errors.Is(err, domain.ErrSessionExists):
		return http.StatusConflict
	case domain.IsInputRejection(err), errors.Is(err, handoff.ErrInvalidSnapshot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnknownMessage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLifecycleExpired):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

func (s *Server) writeResult(w http.ResponseWriter, res *session.Result, err error) {
	if err != nil && res == nil {
		s.writeError(w, err)
		return
	}
	resp := Response{Result: res}
	if err != nil {
		resp.Error = errorMessage(err)
	}
	s.writeJSON(w, StatusCode(err), resp)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, code, Response{Error: errorMessage(err)})
}

// errorMessage prefers the user facing text of a rejection.
func errorMessage(err error) string {
	if errors.Is(err, domain.ErrLockedSession) {
		return runtime.MsgLockout
	}
	if msg := domain.UserMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
