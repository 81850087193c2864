package ws

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chat-app/backend/internal/model"
)

// Client represents a WebSocket client connection.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// NewClient creates a new client with an outbound queue of bufferSize frames.
// conn may be nil for connections that are driven without a socket.
func NewClient(conn *websocket.Conn, bufferSize int) *Client {
	return &Client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, bufferSize),
	}
}

// ID returns the connection ID used in logs.
func (c *Client) ID() string {
	return c.id
}

// Send queues a frame for the write pump without blocking.
// A full queue means the peer is too slow; the client is closed and
// ErrSendBufferFull returned.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return model.ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.closeLocked()
		return model.ErrSendBufferFull
	}
}

// Emit encodes and queues an outbound event.
func (c *Client) Emit(event string, data any) error {
	frame, err := encodeEnvelope(event, data)
	if err != nil {
		return err
	}
	return c.Send(frame)
}

// Close closes the outbound queue. The write pump then closes the socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed returns true if the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// SendChan returns the send channel for the client.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}
