package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/conneroisu/bleak/internal/errors"
	"github.com/conneroisu/bleak/internal/logging"
	"github.com/conneroisu/bleak/internal/middleware"
	"github.com/conneroisu/bleak/internal/renderer"
	"github.com/conneroisu/bleak/internal/session"
	"github.com/conneroisu/bleak/internal/types"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time a session may stay silent before it is closed.
	idleTimeout = 10 * time.Minute

	// Maximum message size allowed from peer.
	maxMessageSize = 16 << 10
)

// Chat message types.
const (
	MessageSession  = "session"
	MessageQuestion = "question"
	MessageChange   = "change"
	MessageSubmit   = "submit"
	MessageDone     = "done"
	MessageError    = "error"
)

// ChatMessage is the JSON envelope exchanged over /ws in both directions
type ChatMessage struct {
	Type      string           `json:"type"`
	SessionID string           `json:"session_id,omitempty"`
	Index     *int             `json:"index,omitempty"`
	Total     int              `json:"total,omitempty"`
	Value     string           `json:"value,omitempty"`
	HTML      string           `json:"html,omitempty"`
	Error     string           `json:"error,omitempty"`
	Code      string           `json:"code,omitempty"`
	Answers   []session.Answer `json:"answers,omitempty"`
}

// chatClient is one WebSocket session. The renderer is captured at connect
// time so a config reload never changes a conversation midway.
type chatClient struct {
	conn     *websocket.Conn
	session  *session.Session
	renderer *renderer.Renderer
	logger   logging.Logger
	onChange types.ChangeFunc
}

// errSessionDone ends the read loop after the last answer.
var errSessionDone = fmt.Errorf("session complete")

func (s *ChatServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	rend, err := s.container.GetRenderer()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	flow, err := s.container.GetFlow()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: middleware.OriginPatterns(s.container.GetConfig().Server.AllowedOrigins),
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "origin", r.Header.Get("Origin"))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	sess := session.New(flow)
	client := &chatClient{
		conn:     conn,
		session:  sess,
		renderer: rend,
		logger:   s.logger.With("session", sess.ID),
	}

	if !s.register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer s.unregister(conn)

	ctx := r.Context()
	client.logger.Info(ctx, "Chat session started", "questions", flow.Len())

	err = client.run(ctx)
	switch {
	case err == errSessionDone:
		client.logger.Info(ctx, "Chat session finished", "answers", len(sess.Answers()))
		conn.Close(websocket.StatusNormalClosure, "")
	case errors.IsConfigurationError(err):
		client.logger.Error(ctx, err, "Chat session aborted")
		conn.Close(websocket.StatusInternalError, "renderer misconfigured")
	case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway:
		client.logger.Debug(ctx, "Chat session closed by client")
	default:
		client.logger.Debug(ctx, "Chat session ended", "error", err.Error())
		conn.CloseNow()
	}
}

func (c *chatClient) run(ctx context.Context) error {
	if err := c.write(ctx, ChatMessage{
		Type:      MessageSession,
		SessionID: c.session.ID,
		Total:     c.session.Flow().Len(),
	}); err != nil {
		return err
	}
	if err := c.sendQuestion(ctx); err != nil {
		return err
	}

	for {
		readCtx, cancel := context.WithTimeout(ctx, idleTimeout)
		_, data, err := c.conn.Read(readCtx)
		cancel()
		if err != nil {
			return err
		}

		var msg ChatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := c.writeError(ctx, errors.WrapValidation(err, errors.ErrCodeInvalidMessage, "malformed message")); err != nil {
				return err
			}
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *chatClient) handle(ctx context.Context, msg ChatMessage) error {
	switch msg.Type {
	case MessageChange:
		current := c.session.Current()
		if msg.Index == nil || *msg.Index != current {
			return c.writeError(ctx, errors.NewValidationError(errors.ErrCodeInvalidIndex,
				fmt.Sprintf("change must target the current question %d", current)))
		}
		c.onChange(msg.Value)
		return nil

	case MessageSubmit:
		if _, err := c.session.Advance(); err != nil {
			return c.writeError(ctx, err)
		}
		if c.session.Done() {
			if err := c.write(ctx, ChatMessage{Type: MessageDone, Answers: c.session.Answers()}); err != nil {
				return err
			}
			return errSessionDone
		}
		return c.sendQuestion(ctx)

	default:
		return c.writeError(ctx, errors.NewValidationError(errors.ErrCodeInvalidMessage,
			fmt.Sprintf("unknown message type %q", msg.Type)))
	}
}

// sendQuestion renders the current question with a change callback bound to
// its index. Configuration errors end the session.
func (c *chatClient) sendQuestion(ctx context.Context) error {
	index := c.session.Current()
	q, err := c.session.Flow().At(index)
	if err != nil {
		return err
	}

	c.onChange = c.session.OnChange(index)
	html, err := c.renderer.RenderHTML(ctx, q, renderer.RenderOptions{
		Value:         c.session.Value(index),
		OnChange:      c.onChange,
		QuestionIndex: &index,
	})
	if err != nil {
		if werr := c.writeError(ctx, err); werr != nil {
			return werr
		}
		return err
	}

	return c.write(ctx, ChatMessage{
		Type:  MessageQuestion,
		Index: &index,
		Total: c.session.Flow().Len(),
		HTML:  html,
	})
}

func (c *chatClient) writeError(ctx context.Context, err error) error {
	msg := ChatMessage{Type: MessageError, Error: err.Error()}
	if be, ok := errors.AsBleakError(err); ok {
		msg.Error = be.Message
		msg.Code = be.Code
	}
	return c.write(ctx, msg)
}

func (c *chatClient) write(ctx context.Context, msg ChatMessage) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return wsjson.Write(writeCtx, c.conn, msg)
}
