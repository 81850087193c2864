package ws

import (
	"fmt"
	"log"

	"github.com/chat-app/backend/internal/metrics"
	"github.com/chat-app/backend/internal/model"
)

// InviteEvent asks ToUserID to start a chat with FromUserID.
type InviteEvent struct {
	FromUserID      string
	FromDisplayName string
	ToUserID        string
}

// Validate checks that all fields are present.
func (e InviteEvent) Validate() error {
	return requireFields(EventSendInvite, map[string]string{
		"from.id":       e.FromUserID,
		"from.username": e.FromDisplayName,
		"to":            e.ToUserID,
	})
}

// AcceptEvent tells the original inviter FromUserID that ToUserID accepted.
type AcceptEvent struct {
	FromUserID    string
	ToUserID      string
	ToDisplayName string
}

// Validate checks that all fields are present.
func (e AcceptEvent) Validate() error {
	return requireFields(EventAcceptInvite, map[string]string{
		"from":        e.FromUserID,
		"to.id":       e.ToUserID,
		"to.username": e.ToDisplayName,
	})
}

// DeclineEvent tells the original inviter FromUserID that ToUserID declined.
type DeclineEvent AcceptEvent

// Validate checks that all fields are present.
func (e DeclineEvent) Validate() error {
	return requireFields(EventDeclineInvite, map[string]string{
		"from":        e.FromUserID,
		"to.id":       e.ToUserID,
		"to.username": e.ToDisplayName,
	})
}

func requireFields(event string, fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%w: %s: %s is required", model.ErrInvalidEvent, event, name)
		}
	}
	return nil
}

// Router delivers directed invite signals to the recipient's current connection.
// It reads the registry at routing time and never caches connections.
type Router struct {
	registry *Registry
	metrics  *metrics.Metrics
}

// NewRouter creates a Router over registry. m may be nil.
func NewRouter(registry *Registry, m *metrics.Metrics) *Router {
	return &Router{registry: registry, metrics: m}
}

// RouteInvite emits receive_invite to the invitee. It reports whether the
// event was handed to a live connection; an offline invitee is not an error.
func (r *Router) RouteInvite(e InviteEvent) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, err
	}
	notice := inviteNotice{From: UserRef{ID: e.FromUserID, Username: e.FromDisplayName}}
	return r.deliver("invite", e.ToUserID, EventReceiveInvite, notice), nil
}

// RouteAccept emits invite_accepted to the original inviter.
func (r *Router) RouteAccept(e AcceptEvent) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, err
	}
	notice := replyNotice{By: UserRef{ID: e.ToUserID, Username: e.ToDisplayName}}
	return r.deliver("accept", e.FromUserID, EventInviteAccepted, notice), nil
}

// RouteDecline emits invite_declined to the original inviter.
func (r *Router) RouteDecline(e DeclineEvent) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, err
	}
	notice := replyNotice{By: UserRef{ID: e.ToUserID, Username: e.ToDisplayName}}
	return r.deliver("decline", e.FromUserID, EventInviteDeclined, notice), nil
}

// deliver sends without holding the registry lock. Send failures are logged
// and not propagated to the sender.
func (r *Router) deliver(kind, userID, event string, data any) bool {
	client, ok := r.registry.Lookup(userID)
	if !ok {
		r.metrics.Routed(kind, metrics.OutcomeOffline)
		return false
	}

	if err := client.Emit(event, data); err != nil {
		log.Printf("Failed to deliver %s to user %s on connection %s: %v", event, userID, client.ID(), err)
		r.metrics.Routed(kind, metrics.OutcomeFailed)
		return false
	}

	r.metrics.Routed(kind, metrics.OutcomeDelivered)
	return true
}
