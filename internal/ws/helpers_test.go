package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/chat-app/backend/internal/model"
)

func newTestGateway(config GatewayConfig) *Gateway {
	registry := NewRegistry(nil)
	router := NewRouter(registry, nil)
	channel := NewChannel(registry, nil)
	return NewGateway(registry, router, channel, nil, config)
}

func openSession(g *Gateway, identity *model.Identity) *Session {
	return g.Open(NewClient(nil, 64), identity)
}

func sendEvent(t *testing.T, s *Session, event string, data any) {
	t.Helper()
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("failed to marshal %s payload: %v", event, err)
		}
		env.Data = raw
	}
	frame, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("failed to marshal envelope: %v", err)
	}
	s.Handle(frame)
}

// receiveEvent returns the next queued event on client, or nil after timeout.
func receiveEvent(t *testing.T, client *Client, timeout time.Duration) *Envelope {
	t.Helper()
	select {
	case frame, ok := <-client.SendChan():
		if !ok {
			return nil
		}
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("client received invalid frame %q: %v", frame, err)
		}
		return &env
	case <-time.After(timeout):
		return nil
	}
}

func expectEvent(t *testing.T, client *Client, event string) *Envelope {
	t.Helper()
	env := receiveEvent(t, client, 100*time.Millisecond)
	if env == nil {
		t.Fatalf("expected %s event, got nothing", event)
	}
	if env.Event != event {
		t.Fatalf("expected %s event, got %s (%s)", event, env.Event, env.Data)
	}
	return env
}

func expectNoEvent(t *testing.T, client *Client) {
	t.Helper()
	if env := receiveEvent(t, client, 20*time.Millisecond); env != nil {
		t.Fatalf("expected no event, got %s (%s)", env.Event, env.Data)
	}
}

func expectError(t *testing.T, client *Client, code string) {
	t.Helper()
	env := expectEvent(t, client, EventError)
	var p ErrorPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("invalid error payload: %v", err)
	}
	if p.Code != code {
		t.Fatalf("expected error code %s, got %s (%s)", code, p.Code, p.Message)
	}
}
