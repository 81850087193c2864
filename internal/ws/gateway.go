package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/chat-app/backend/internal/metrics"
	"github.com/chat-app/backend/internal/model"
)

// State is the lifecycle state of a gateway connection.
type State int

const (
	StateConnected State = iota
	StateRegistered
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateRegistered:
		return "registered"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParticipantResolver returns the user IDs taking part in a chat.
type ParticipantResolver interface {
	Participants(ctx context.Context, chatID string) ([]string, error)
}

// AcceptHook runs when a registered user accepts an invite, before the
// inviter is notified.
type AcceptHook func(ctx context.Context, inviterID, inviteeID string) error

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	// EventsPerSecond and EventBurst bound inbound events per connection.
	// Zero disables the limit.
	EventsPerSecond float64
	EventBurst      int

	// RoomScoped routes send-message payloads carrying a chatId to that
	// chat's participants instead of every connection.
	RoomScoped   bool
	Participants ParticipantResolver

	OnAccept AcceptHook

	// HookTimeout bounds Participants and OnAccept calls.
	HookTimeout time.Duration
}

// Gateway owns the per-connection state machine and dispatches inbound events.
type Gateway struct {
	registry *Registry
	router   *Router
	channel  *Channel
	metrics  *metrics.Metrics
	config   GatewayConfig
}

// NewGateway creates a Gateway.
func NewGateway(registry *Registry, router *Router, channel *Channel, m *metrics.Metrics, config GatewayConfig) *Gateway {
	if config.HookTimeout == 0 {
		config.HookTimeout = 5 * time.Second
	}
	return &Gateway{
		registry: registry,
		router:   router,
		channel:  channel,
		metrics:  m,
		config:   config,
	}
}

// Session is the gateway's view of one connection.
type Session struct {
	gateway *Gateway
	client  *Client
	limiter *rate.Limiter

	mu       sync.Mutex
	state    State
	userID   string
	username string

	closeOnce sync.Once
}

// Open admits a new connection. A non-nil identity comes from a verified
// token and registers the connection immediately.
func (g *Gateway) Open(client *Client, identity *model.Identity) *Session {
	s := &Session{
		gateway: g,
		client:  client,
		state:   StateConnected,
	}
	if g.config.EventsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(g.config.EventsPerSecond), g.config.EventBurst)
	}

	g.channel.Add(client)
	g.metrics.ConnectionOpened()

	if identity != nil && identity.UserID != "" {
		s.register(identity.UserID, identity.Username)
	}
	return s
}

// Client returns the session's connection.
func (s *Session) Client() *Client {
	return s.client
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UserID returns the registered user ID, or "" while anonymous.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) identity() (State, string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.userID, s.username
}

func (s *Session) register(userID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = StateRegistered
	s.userID = userID
	if username != "" {
		s.username = username
	}

	// Held across Register so a concurrent Close cannot unregister first.
	s.gateway.registry.Register(userID, s.client)
	log.Printf("Connection %s registered as user %s", s.client.ID(), userID)
}

// Close moves the session to Closed and releases its registry entries.
// It is safe to call more than once and from several goroutines.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		userID := s.userID
		s.mu.Unlock()

		g := s.gateway
		g.registry.Unregister(s.client)
		g.channel.Remove(s.client)
		s.client.Close()
		g.metrics.ConnectionClosed()

		if userID != "" {
			log.Printf("Connection %s (user %s) closed", s.client.ID(), userID)
		}
	})
}

type eventHandler struct {
	requiresRegistered bool
	handle             func(s *Session, data json.RawMessage) error
}

var dispatchTable = map[string]eventHandler{
	EventRegister:      {handle: (*Session).handleRegister},
	EventSendInvite:    {requiresRegistered: true, handle: (*Session).handleSendInvite},
	EventAcceptInvite:  {requiresRegistered: true, handle: (*Session).handleAcceptInvite},
	EventDeclineInvite: {requiresRegistered: true, handle: (*Session).handleDeclineInvite},
	EventSendMessage:   {handle: (*Session).handleSendMessage},
	EventPing:          {handle: (*Session).handlePing},
}

// Handle decodes and dispatches one inbound frame. Failures are reported to
// this connection only.
func (s *Session) Handle(frame []byte) {
	if s.State() == StateClosed {
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.reject(CodeRateLimited, "too many events, slow down")
		return
	}

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		s.reportError(fmt.Errorf("%w: malformed frame: %v", model.ErrInvalidEvent, err))
		return
	}

	handler, ok := dispatchTable[env.Event]
	if !ok {
		s.reportError(fmt.Errorf("%w: unknown event %q", model.ErrInvalidEvent, env.Event))
		return
	}
	s.gateway.metrics.Inbound(env.Event)

	if handler.requiresRegistered && s.State() != StateRegistered {
		s.reportError(fmt.Errorf("%w: %s requires a registered connection", model.ErrUnauthenticated, env.Event))
		return
	}

	if err := handler.handle(s, env.Data); err != nil {
		s.reportError(err)
	}
}

func (s *Session) reportError(err error) {
	switch {
	case errors.Is(err, model.ErrInvalidEvent):
		s.reject(CodeInvalidEvent, err.Error())
	case errors.Is(err, model.ErrUnauthenticated):
		s.reject(CodeUnauthenticated, err.Error())
	default:
		log.Printf("Connection %s: event failed: %v", s.client.ID(), err)
	}
}

func (s *Session) reject(code, message string) {
	s.gateway.metrics.Rejected(code)
	if err := s.client.Emit(EventError, ErrorPayload{Code: code, Message: message}); err != nil {
		log.Printf("Failed to report %s to connection %s: %v", code, s.client.ID(), err)
	}
}

func (s *Session) handleRegister(data json.RawMessage) error {
	var p registerPayload
	if err := decodeData(EventRegister, data, &p); err != nil {
		return err
	}
	if p.UserID == "" {
		return fmt.Errorf("%w: register: userId is required", model.ErrInvalidEvent)
	}
	s.register(p.UserID, p.Username)
	return nil
}

func (s *Session) handleSendInvite(data json.RawMessage) error {
	var p sendInvitePayload
	if err := decodeData(EventSendInvite, data, &p); err != nil {
		return err
	}

	_, userID, username := s.identity()
	if p.From.Username != "" {
		username = p.From.Username
	}
	_, err := s.gateway.router.RouteInvite(InviteEvent{
		FromUserID:      userID,
		FromDisplayName: username,
		ToUserID:        p.To,
	})
	return err
}

func (s *Session) replyEvent(event string, data json.RawMessage) (AcceptEvent, error) {
	var p replyInvitePayload
	if err := decodeData(event, data, &p); err != nil {
		return AcceptEvent{}, err
	}

	_, userID, username := s.identity()
	if p.To.Username != "" {
		username = p.To.Username
	}
	return AcceptEvent{
		FromUserID:    p.From,
		ToUserID:      userID,
		ToDisplayName: username,
	}, nil
}

func (s *Session) handleAcceptInvite(data json.RawMessage) error {
	e, err := s.replyEvent(EventAcceptInvite, data)
	if err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}

	if hook := s.gateway.config.OnAccept; hook != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.gateway.config.HookTimeout)
		err := hook(ctx, e.FromUserID, e.ToUserID)
		cancel()
		if err != nil {
			log.Printf("Accept hook for %s -> %s failed: %v", e.FromUserID, e.ToUserID, err)
		}
	}

	_, err = s.gateway.router.RouteAccept(e)
	return err
}

func (s *Session) handleDeclineInvite(data json.RawMessage) error {
	e, err := s.replyEvent(EventDeclineInvite, data)
	if err != nil {
		return err
	}
	_, err = s.gateway.router.RouteDecline(DeclineEvent(e))
	return err
}

func (s *Session) handleSendMessage(data json.RawMessage) error {
	if isEmpty(data) {
		return fmt.Errorf("%w: %s requires a payload", model.ErrInvalidEvent, EventSendMessage)
	}

	cfg := s.gateway.config
	if cfg.RoomScoped && cfg.Participants != nil {
		var scoped struct {
			ChatID string `json:"chatId"`
		}
		if json.Unmarshal(data, &scoped) == nil && scoped.ChatID != "" {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.HookTimeout)
			participants, err := cfg.Participants.Participants(ctx, scoped.ChatID)
			cancel()
			if err != nil {
				if errors.Is(err, model.ErrChatNotFound) {
					return fmt.Errorf("%w: unknown chat %s", model.ErrInvalidEvent, scoped.ChatID)
				}
				return err
			}
			if !s.isParticipant(participants) {
				return fmt.Errorf("%w: not a participant of chat %s", model.ErrInvalidEvent, scoped.ChatID)
			}
			s.gateway.channel.BroadcastTo(participants, data)
			return nil
		}
	}

	s.gateway.channel.Broadcast(data)
	return nil
}

func (s *Session) handlePing(json.RawMessage) error {
	return s.client.Emit(EventPong, nil)
}

func (s *Session) isParticipant(participants []string) bool {
	state, userID, _ := s.identity()
	if state != StateRegistered {
		return false
	}
	for _, id := range participants {
		if id == userID {
			return true
		}
	}
	return false
}
