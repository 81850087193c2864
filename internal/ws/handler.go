package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chat-app/backend/internal/model"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

// Handler upgrades HTTP requests to WebSocket connections and pumps frames
// between the socket and the gateway.
type Handler struct {
	gateway    *Gateway
	upgrader   websocket.Upgrader
	bufferSize int
}

// NewHandler creates a new WebSocket handler.
func NewHandler(gateway *Gateway, origins *OriginChecker, bufferSize int) *Handler {
	if origins == nil {
		origins = NewOriginChecker([]string{"*"})
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Handler{
		gateway: gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.Check,
		},
		bufferSize: bufferSize,
	}
}

// HandleConnection upgrades the request and serves the connection until it
// closes. identity is the verified user, or nil for an anonymous connection.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request, identity *model.Identity) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an HTTP error response.
		return err
	}

	client := NewClient(conn, h.bufferSize)
	session := h.gateway.Open(client, identity)

	go h.writePump(client)
	go h.readPump(session)

	return nil
}

// readPump pumps frames from the connection to the gateway. Its exit closes
// the session exactly once whatever caused it.
func (h *Handler) readPump(session *Session) {
	conn := session.Client().Conn()
	defer func() {
		session.Close()
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		session.Handle(message)
	}
}

// writePump pumps queued frames to the connection.
func (h *Handler) writePump(client *Client) {
	conn := client.Conn()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.SendChan():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The send queue was closed.
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One event per frame so clients can JSON.parse each frame.
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(client.SendChan())
			for i := 0; i < n; i++ {
				queued, ok := <-client.SendChan()
				if !ok {
					conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, queued); err != nil {
					return
				}
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
