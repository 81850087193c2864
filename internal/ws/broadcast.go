package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/chat-app/backend/internal/metrics"
)

// Channel tracks every live connection and fans chat messages out to them.
type Channel struct {
	registry *Registry
	clients  map[*Client]struct{}
	mu       sync.RWMutex
	metrics  *metrics.Metrics
}

// NewChannel creates a Channel. registry resolves participants for BroadcastTo.
func NewChannel(registry *Registry, m *metrics.Metrics) *Channel {
	return &Channel{
		registry: registry,
		clients:  make(map[*Client]struct{}),
		metrics:  m,
	}
}

// Add starts including client in broadcasts.
func (ch *Channel) Add(client *Client) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.clients[client] = struct{}{}
}

// Remove stops including client in broadcasts.
func (ch *Channel) Remove(client *Client) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	delete(ch.clients, client)
}

// Len returns the number of live connections.
func (ch *Channel) Len() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.clients)
}

// Broadcast emits receive_message to every connection live at call time,
// the sender included. It returns the number of sends attempted.
func (ch *Channel) Broadcast(payload json.RawMessage) int {
	ch.mu.RLock()
	clients := make([]*Client, 0, len(ch.clients))
	for client := range ch.clients {
		clients = append(clients, client)
	}
	ch.mu.RUnlock()

	return ch.fanOut(clients, payload)
}

// BroadcastTo emits receive_message to the current connections of userIDs.
// Offline users are skipped and a connection mapped to several of the IDs
// receives the message once.
func (ch *Channel) BroadcastTo(userIDs []string, payload json.RawMessage) int {
	seen := make(map[*Client]struct{}, len(userIDs))
	clients := make([]*Client, 0, len(userIDs))
	for _, userID := range userIDs {
		client, ok := ch.registry.Lookup(userID)
		if !ok {
			continue
		}
		if _, dup := seen[client]; dup {
			continue
		}
		seen[client] = struct{}{}
		clients = append(clients, client)
	}

	return ch.fanOut(clients, payload)
}

func (ch *Channel) fanOut(clients []*Client, payload json.RawMessage) int {
	frame, err := encodeEnvelope(EventReceiveMessage, payload)
	if err != nil {
		log.Printf("Failed to encode broadcast: %v", err)
		return 0
	}

	for _, client := range clients {
		err := client.Send(frame)
		if err != nil {
			log.Printf("Broadcast to connection %s failed: %v", client.ID(), err)
		}
		ch.metrics.BroadcastSend(err == nil)
	}
	return len(clients)
}

// Close closes every live connection.
func (ch *Channel) Close() {
	ch.mu.Lock()
	clients := make([]*Client, 0, len(ch.clients))
	for client := range ch.clients {
		clients = append(clients, client)
	}
	ch.clients = make(map[*Client]struct{})
	ch.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
