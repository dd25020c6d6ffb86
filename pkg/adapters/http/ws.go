package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/aretw0/actbot/pkg/session"
)

// Websocket message types.
const (
	MessageAnswer = "answer"
	MessageBack   = "back"
	MessageTerms  = "terms"
	MessageHelp   = "help"
	MessageSave   = "save"
	MessageGet    = "get"

	MessageResult = "result"
	MessageUpdate = "update"
	MessageError  = "error"
)

// ErrUnknownMessage is returned for a websocket command of an unknown type.
var ErrUnknownMessage = errors.New("unknown message type")

// ClientMessage is a command sent over the websocket.
type ClientMessage struct {
	Type   string `json:"type"`
	Answer string `json:"answer,omitempty"`
}

// ServerMessage is pushed to the websocket client. Result answers a command,
// Update carries changes made elsewhere, such as inactivity timers.
type ServerMessage struct {
	Type   string          `json:"type"`
	Result *session.Result `json:"result,omitempty"`
	Update *session.Update `json:"update,omitempty"`
	Error  string          `json:"error,omitempty"`
	Status int             `json:"status,omitempty"`
}

type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) send(ctx context.Context, msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// ServeWebsocket handles GET /sessions/{id}/ws. The connection accepts commands
// for one session and pushes every update of that session.
func (s *Server) ServeWebsocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if _, err := s.Service.Get(r.Context(), sessionID); err != nil {
		s.writeError(w, err)
		return
	}

	opts := &websocket.AcceptOptions{}
	if len(s.allowedOrigins) == 0 {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = s.allowedOrigins
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		s.logger.Error("websocket accept failed", "session_id", sessionID, "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &wsConn{conn: conn}
	updates, unsubscribe := s.Streams.Subscribe(sessionID)
	defer unsubscribe()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				if err := c.send(ctx, ServerMessage{Type: MessageUpdate, Update: &u}); err != nil {
					s.logger.Debug("websocket push failed", "session_id", sessionID, "error", err)
					cancel()
					return
				}
			}
		}
	}()

	s.logger.Info("websocket connected", "session_id", sessionID)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			s.logger.Debug("websocket closed", "session_id", sessionID, "error", err)
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = c.send(ctx, ServerMessage{Type: MessageError, Error: "Invalid message format", Status: http.StatusBadRequest})
			continue
		}

		res, err := s.dispatch(ctx, sessionID, msg)
		reply := ServerMessage{Type: MessageResult, Result: res}
		if err != nil {
			reply.Error = errorMessage(err)
			reply.Status = StatusCode(err)
			if res == nil {
				reply.Type = MessageError
			}
		}
		if err := c.send(ctx, reply); err != nil {
			s.logger.Debug("websocket reply failed", "session_id", sessionID, "error", err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, sessionID string, msg ClientMessage) (*session.Result, error) {
	switch msg.Type {
	case MessageAnswer:
		return s.Service.Submit(ctx, sessionID, msg.Answer)
	case MessageBack:
		return s.Service.Back(ctx, sessionID)
	case MessageTerms:
		return s.Service.AcceptTerms(ctx, sessionID)
	case MessageHelp:
		return s.Service.Help(ctx, sessionID)
	case MessageSave:
		return s.Service.SaveForLater(ctx, sessionID)
	case MessageGet:
		return s.Service.Get(ctx, sessionID)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownMessage, msg.Type)
}
