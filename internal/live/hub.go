// Package live tracks open websocket connections per assessment session so
// they can be closed when the session expires or is replaced.
package live

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Conn is the part of *websocket.Conn the hub needs.
type Conn interface {
	Close(code websocket.StatusCode, reason string) error
}

// Hub manages active connections keyed by session id. A session has at most
// one live connection; registering a second closes the first.
type Hub struct {
	mu     sync.RWMutex
	active map[string]Conn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{active: make(map[string]Conn)}
}

// Active returns the live connection for a session, or nil.
func (h *Hub) Active(sessionID string) Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.active[sessionID]
}

// Register records conn as the session's live connection.
func (h *Hub) Register(sessionID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.active[sessionID]; ok && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
	}
	h.active[sessionID] = conn
	slog.Info("Live session registered", "session_id", sessionID)
}

// Unregister forgets conn if it is still the session's live connection.
func (h *Hub) Unregister(sessionID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.active[sessionID]; ok && current == conn {
		delete(h.active, sessionID)
		slog.Info("Live session unregistered", "session_id", sessionID)
	}
}

// CloseSession closes and forgets the session's connection, if any.
func (h *Hub) CloseSession(sessionID, reason string) {
	h.mu.Lock()
	conn, ok := h.active[sessionID]
	delete(h.active, sessionID)
	h.mu.Unlock()

	if !ok {
		return
	}
	// 4000-range codes are application defined; clients treat it as expiry.
	if err := conn.Close(StatusSessionExpired, reason); err != nil {
		slog.Debug("Failed to close live session", "session_id", sessionID, "error", err)
	}
	slog.Info("Live session closed", "session_id", sessionID, "reason", reason)
}

// StatusSessionExpired is sent when a session is closed by the hub.
const StatusSessionExpired websocket.StatusCode = 4001

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active)
}
