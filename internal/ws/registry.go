package ws

import (
	"log"
	"sync"

	"github.com/chat-app/backend/internal/metrics"
	"github.com/chat-app/backend/internal/model"
)

// Registry maps user IDs to their live connection.
// At most one connection is mapped per user ID; a newer registration
// replaces the older one without closing it.
type Registry struct {
	mu       sync.RWMutex
	byUser   map[string]*Client
	byClient map[*Client]map[string]struct{}
	metrics  *metrics.Metrics
}

// NewRegistry creates an empty registry. m may be nil.
func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{
		byUser:   make(map[string]*Client),
		byClient: make(map[*Client]map[string]struct{}),
		metrics:  m,
	}
}

// Register maps userID to client, replacing any previous mapping.
func (r *Registry) Register(userID string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byUser[userID]; ok && prev != client {
		if ids := r.byClient[prev]; ids != nil {
			delete(ids, userID)
			if len(ids) == 0 {
				delete(r.byClient, prev)
			}
		}
	}

	r.byUser[userID] = client
	ids := r.byClient[client]
	if ids == nil {
		ids = make(map[string]struct{})
		r.byClient[client] = ids
	}
	ids[userID] = struct{}{}

	r.metrics.SetRegistered(len(r.byUser))
}

// Unregister removes every mapping that points at client.
// Calling it for a client that is not mapped is a no-op.
func (r *Registry) Unregister(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID := range r.byClient[client] {
		if r.byUser[userID] != client {
			// Reverse index disagrees with the forward map.
			log.Printf("%v: user %s indexed under connection %s but mapped elsewhere",
				model.ErrRegistryInconsistency, userID, client.ID())
			continue
		}
		delete(r.byUser, userID)
	}
	delete(r.byClient, client)

	r.metrics.SetRegistered(len(r.byUser))
}

// Lookup returns the live connection for userID.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.byUser[userID]
	return client, ok
}

// UserIDs returns the user IDs currently mapped to client.
func (r *Registry) UserIDs(client *Client) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byClient[client]))
	for id := range r.byClient[client] {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of registered user IDs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
