package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

// NotificationHub tracks raw websocket clients by user id. It predates the
// Socket.IO channel and is kept for clients that still connect to
// /ws/notifications.
type NotificationHub struct {
	clients map[string]*websocket.Conn
	mutex   sync.Mutex
}

// NewNotificationHub creates an empty hub.
func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients: make(map[string]*websocket.Conn),
	}
}

// HandleWebSocket upgrades the connection and registers the client under the
// userId query param.
func (h *NotificationHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade error", "error", err)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		conn.Close()
		return
	}

	h.mutex.Lock()
	h.clients[userID] = conn
	h.mutex.Unlock()
	zap.S().Debugw("user connected to /ws/notifications", "userId", userID)

	conn.SetCloseHandler(func(code int, text string) error {
		h.mutex.Lock()
		delete(h.clients, userID)
		h.mutex.Unlock()
		zap.S().Debugw("user disconnected from /ws/notifications", "userId", userID)
		return nil
	})

	// drain reads to keep the connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			conn.Close()
			break
		}
	}
}

// SendToUser writes the event to one user's connection, if present.
func (h *NotificationHub) SendToUser(userID string, event string, payload interface{}) {
	h.mutex.Lock()
	conn, exists := h.clients[userID]
	h.mutex.Unlock()

	if !exists {
		return
	}
	if err := conn.WriteJSON(map[string]interface{}{"event": event, "data": payload}); err != nil {
		zap.S().Warnw("failed to write websocket notification", "userId", userID, "error", err)
	}
}

// Broadcast writes the event to every connected client.
func (h *NotificationHub) Broadcast(event string, payload interface{}) {
	h.mutex.Lock()
	conns := make(map[string]*websocket.Conn, len(h.clients))
	for id, c := range h.clients {
		conns[id] = c
	}
	h.mutex.Unlock()

	for id, c := range conns {
		if err := c.WriteJSON(map[string]interface{}{"event": event, "data": payload}); err != nil {
			zap.S().Warnw("failed to write websocket broadcast", "userId", id, "error", err)
		}
	}
}
