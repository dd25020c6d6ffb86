package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/actbot/pkg/session"
)

// StreamManager fans session updates out to the SSE and websocket clients
// watching each session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- session.Update]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty stream manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- session.Update]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for sessionID. The returned func
// unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan session.Update, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan session.Update, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- session.Update]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers returns the number of clients watching sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast is a session.Listener. Slow clients lose updates rather than
// blocking the session.
func (sm *StreamManager) Broadcast(ctx context.Context, u session.Update) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	subs, ok := sm.subscribers[u.SessionID]
	if !ok {
		return
	}
	sm.logger.Debug("broadcasting session update", "session_id", u.SessionID, "subscribers", len(subs))
	for ch := range subs {
		select {
		case ch <- u:
		default:
			sm.logger.Warn("stream client buffer full, dropping update", "session_id", u.SessionID)
		}
	}
}

// watches reports whether u touches any of the requested fields.
// Accepted names: stage, score, lifecycle, answers, transcript, messages.
func watches(u session.Update, fields []string) bool {
	if len(fields) == 0 {
		return true
	}
	d := u.Diff
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "stage":
			if d != nil && d.Stage != nil {
				return true
			}
		case "score":
			if d != nil && d.Score != nil {
				return true
			}
		case "lifecycle":
			if d != nil && d.Lifecycle != nil {
				return true
			}
		case "answers":
			if d != nil && len(d.Answers) > 0 {
				return true
			}
		case "transcript":
			if d != nil && (len(d.Transcript) > 0 || d.Truncated) {
				return true
			}
		case "messages":
			if u.Outcome != nil && (len(u.Outcome.Replies) > 0 || len(u.Outcome.Notices) > 0) {
				return true
			}
		}
	}
	return false
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// The optional watch query parameter filters updates by the fields they touch.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SSE: streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "id")
	if _, err := s.Service.Get(r.Context(), sessionID); err != nil {
		s.writeError(w, err)
		return
	}

	var watchList []string
	if v := r.URL.Query().Get("watch"); v != "" {
		watchList = strings.Split(v, ",")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("SSE: client subscribed", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case u, ok := <-ch:
			if !ok {
				return
			}
			if !watches(u, watchList) {
				continue
			}
			data, err := json.Marshal(u)
			if err != nil {
				s.logger.Error("SSE: failed to encode update", "session_id", sessionID, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: update\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
