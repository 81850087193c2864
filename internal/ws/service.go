package ws

import (
	"github.com/chat-app/backend/internal/metrics"
)

// Config holds configuration for the WebSocket service.
type Config struct {
	Gateway        GatewayConfig
	AllowedOrigins []string
	SendBufferSize int
}

// Service wires the registry, router, channel and gateway together and
// exposes the HTTP-facing handler.
type Service struct {
	registry *Registry
	router   *Router
	channel  *Channel
	gateway  *Gateway
	handler  *Handler
}

// NewService creates a new WebSocket service. m may be nil.
func NewService(config Config, m *metrics.Metrics) *Service {
	registry := NewRegistry(m)
	router := NewRouter(registry, m)
	channel := NewChannel(registry, m)
	gateway := NewGateway(registry, router, channel, m, config.Gateway)
	handler := NewHandler(gateway, NewOriginChecker(config.AllowedOrigins), config.SendBufferSize)

	return &Service{
		registry: registry,
		router:   router,
		channel:  channel,
		gateway:  gateway,
		handler:  handler,
	}
}

// Handler returns the WebSocket handler.
func (s *Service) Handler() *Handler {
	return s.handler
}

// ConnectionCount returns the number of open connections.
func (s *Service) ConnectionCount() int {
	return s.channel.Len()
}

// RegisteredCount returns the number of registered user IDs.
func (s *Service) RegisteredCount() int {
	return s.registry.Len()
}

// IsOnline reports whether userID currently has a live connection.
func (s *Service) IsOnline(userID string) bool {
	_, ok := s.registry.Lookup(userID)
	return ok
}

// Close closes all WebSocket connections. Each read pump then releases its
// session through the normal close path.
func (s *Service) Close() {
	s.channel.Close()
}
