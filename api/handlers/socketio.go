package handlers

import (
	"fmt"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"go.uber.org/zap"
)

// InitializeSocketIO initializes the Socket.IO server. Clients authenticate
// by emitting "authenticate" with their user id, which joins them to their
// personal room so verdict notifications can be addressed to them.
func InitializeSocketIO() *socketio.Server {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			polling.Default,
			websocket.Default,
		},
	})

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		zap.S().Debugw("socket.io client connected", "id", s.ID())
		return nil
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		zap.S().Warnw("socket.io error", "error", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		zap.S().Debugw("socket.io client disconnected", "id", s.ID(), "reason", reason)
	})

	server.OnEvent("/", "authenticate", func(s socketio.Conn, userID string) {
		if userID != "" {
			s.Join(userRoom(userID))
			zap.S().Debugw("socket.io client authenticated", "userId", userID)
		}
	})

	go func() {
		if err := server.Serve(); err != nil {
			zap.S().Errorw("socket.io server error", "error", err)
		}
	}()

	return server
}

func userRoom(userID string) string {
	return "user_" + userID
}

// SocketNotifier fans events out over the Socket.IO server and the legacy
// websocket hub.
type SocketNotifier struct {
	Server *socketio.Server
	Hub    *NotificationHub
}

// Broadcast sends the event to every connected client.
func (n *SocketNotifier) Broadcast(event string, payload interface{}) error {
	if n.Server != nil {
		n.Server.BroadcastToRoom("/", "", event, payload)
	}
	if n.Hub != nil {
		n.Hub.Broadcast(event, payload)
	}
	return nil
}

// Unicast sends the event to the given user's room only.
func (n *SocketNotifier) Unicast(userID string, event string, payload interface{}) error {
	if userID == "" {
		return fmt.Errorf("unicast requires a user id")
	}
	if n.Server != nil {
		n.Server.BroadcastToRoom("/", userRoom(userID), event, payload)
	}
	if n.Hub != nil {
		n.Hub.SendToUser(userID, event, payload)
	}
	return nil
}
