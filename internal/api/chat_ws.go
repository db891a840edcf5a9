package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ashureev/skillpath/internal/apierr"
	"github.com/ashureev/skillpath/internal/assessment"
	"github.com/ashureev/skillpath/internal/domain"
	"github.com/ashureev/skillpath/internal/live"
	"github.com/ashureev/skillpath/internal/transcript"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	channelWS      = "ws"
	wsWriteTimeout = 10 * time.Second
)

// Message types.
const (
	wsTypeMessage = "message"
	wsTypePing    = "ping"
	wsTypePong    = "pong"
	wsTypeStart   = "start"
	wsTypeStatus  = "status"
	wsTypeReply   = "reply"
	wsTypeError   = "error"
)

type wsInbound struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

type wsOutbound struct {
	Type      string                  `json:"type"`
	SessionID string                  `json:"session_id,omitempty"`
	Start     *assessment.StartResult `json:"start,omitempty"`
	Status    *assessment.Status      `json:"status,omitempty"`
	Turn      *assessment.Turn        `json:"turn,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Code      string                  `json:"code,omitempty"`
}

// ChatSocketHandler runs a whole conversation over one websocket. Each
// inbound message is routed by the session's stage.
type ChatSocketHandler struct {
	*Handler
	hub            *live.Hub
	originPatterns []string
}

// NewChatSocketHandler creates the /ws/chat handler. allowedOrigins uses the
// same values as the CORS middleware.
func NewChatSocketHandler(base *Handler, hub *live.Hub, allowedOrigins []string) *ChatSocketHandler {
	return &ChatSocketHandler{
		Handler:        base,
		hub:            hub,
		originPatterns: originPatterns(allowedOrigins),
	}
}

// originPatterns converts origins ("https://app.example") to the host
// patterns websocket.Accept expects.
func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
		}
	}
	return out
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *ChatSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.Warn("Failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	ws.SetReadLimit(maxBodyBytes)
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "conversation ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	ctx := r.Context()
	sessionID, ok := h.open(ctx, ws, sessionID)
	if !ok {
		return
	}

	h.hub.Register(sessionID, ws)
	defer h.hub.Unregister(sessionID, ws)

	for {
		var in wsInbound
		if err := wsjson.Read(ctx, ws, &in); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				h.logger.Debug("WebSocket read ended", "error", err, "session_id", sessionID)
			}
			return
		}

		switch in.Type {
		case wsTypePing:
			if h.write(ctx, ws, wsOutbound{Type: wsTypePong}) != nil {
				return
			}
		case wsTypeMessage, "":
			if !h.handleMessage(ctx, ws, sessionID, in.Content) {
				return
			}
		default:
			if h.write(ctx, ws, wsOutbound{Type: wsTypeError, Error: "unknown message type", Code: apierr.CodeBadRequest}) != nil {
				return
			}
		}
	}
}

// open resumes sessionID or starts a new session and sends the first frame.
func (h *ChatSocketHandler) open(ctx context.Context, ws *websocket.Conn, sessionID string) (string, bool) {
	if sessionID == "" {
		res, err := h.svc.Start(ctx)
		if err != nil {
			h.fail(ctx, ws, err)
			return "", false
		}
		h.record(ctx, channelWS, transcript.Outbound, "start", res.SessionID, res.Message+" "+res.NextPrompt, string(res.Stage), nil)
		return res.SessionID, h.write(ctx, ws, wsOutbound{Type: wsTypeStart, SessionID: res.SessionID, Start: &res}) == nil
	}

	st, err := h.svc.Status(ctx, sessionID)
	if err != nil {
		h.fail(ctx, ws, err)
		return "", false
	}
	return sessionID, h.write(ctx, ws, wsOutbound{Type: wsTypeStatus, SessionID: sessionID, Status: &st}) == nil
}

// handleMessage answers one message; false ends the connection.
func (h *ChatSocketHandler) handleMessage(ctx context.Context, ws *websocket.Conn, sessionID, text string) bool {
	h.record(ctx, channelWS, transcript.Inbound, "message", sessionID, text, "", nil)

	turn, err := h.svc.Respond(ctx, sessionID, text)
	if err != nil {
		ae := apierr.From(err)
		if ae.Status < http.StatusInternalServerError && !errors.Is(err, domain.ErrSessionNotFound) {
			return h.write(ctx, ws, wsOutbound{Type: wsTypeError, Error: ae.Public(), Code: ae.Code}) == nil
		}
		h.fail(ctx, ws, err)
		return false
	}

	h.record(ctx, channelWS, transcript.Outbound, "reply", sessionID, turn.Reply+"\n"+turn.NextPrompt, string(turn.Stage), map[string]any{
		"outcome":  string(turn.Outcome),
		"progress": turn.Progress,
	})
	return h.write(ctx, ws, wsOutbound{Type: wsTypeReply, SessionID: sessionID, Turn: &turn}) == nil
}

// fail sends a terminal error frame and closes the socket.
func (h *ChatSocketHandler) fail(ctx context.Context, ws *websocket.Conn, err error) {
	ae := apierr.From(err)
	if ae.Status >= http.StatusInternalServerError {
		h.logger.Error("WebSocket conversation failed", "error", err)
	}
	_ = h.write(ctx, ws, wsOutbound{Type: wsTypeError, Error: ae.Public(), Code: ae.Code})

	status := websocket.StatusInternalError
	if errors.Is(err, domain.ErrSessionNotFound) {
		status = live.StatusSessionExpired
	}
	_ = ws.Close(status, ae.Code)
}

func (h *ChatSocketHandler) write(ctx context.Context, ws *websocket.Conn, msg wsOutbound) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, ws, msg); err != nil {
		slog.Debug("WebSocket write error", "error", err, "type", msg.Type)
		return err
	}
	return nil
}
