package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/chat-app/backend/internal/model"
)

func TestGatewayInviteAcceptScenario(t *testing.T) {
	g := newTestGateway(GatewayConfig{})
	a := openSession(g, nil)
	b := openSession(g, nil)

	sendEvent(t, a, EventRegister, "u1")
	sendEvent(t, b, EventRegister, "u2")
	if a.State() != StateRegistered || b.State() != StateRegistered {
		t.Fatalf("expected both sessions registered, got %s and %s", a.State(), b.State())
	}

	sendEvent(t, a, EventSendInvite, map[string]any{
		"from": map[string]string{"id": "u1", "username": "Alice"},
		"to":   "u2",
	})
	env := expectEvent(t, b.Client(), EventReceiveInvite)
	if string(env.Data) != `{"from":{"id":"u1","username":"Alice"}}` {
		t.Errorf("unexpected invite payload: %s", env.Data)
	}
	expectNoEvent(t, a.Client())

	sendEvent(t, b, EventAcceptInvite, map[string]any{
		"from": "u1",
		"to":   map[string]string{"id": "u2", "username": "Bob"},
	})
	env = expectEvent(t, a.Client(), EventInviteAccepted)
	if string(env.Data) != `{"by":{"id":"u2","username":"Bob"}}` {
		t.Errorf("unexpected accept payload: %s", env.Data)
	}
	expectNoEvent(t, b.Client())
}

func TestGatewayAcceptRoutesToReconnectedInviter(t *testing.T) {
	g := newTestGateway(GatewayConfig{})
	a := openSession(g, nil)
	b := openSession(g, nil)
	sendEvent(t, a, EventRegister, "u1")
	sendEvent(t, b, EventRegister, "u2")

	sendEvent(t, a, EventSendInvite, map[string]any{
		"from": map[string]string{"id": "u1", "username": "Alice"},
		"to":   "u2",
	})
	expectEvent(t, b.Client(), EventReceiveInvite)

	a.Close()
	c := openSession(g, nil)
	sendEvent(t, c, EventRegister, "u1")

	sendEvent(t, b, EventAcceptInvite, map[string]any{
		"from": "u1",
		"to":   map[string]string{"id": "u2", "username": "Bob"},
	})
	expectEvent(t, c.Client(), EventInviteAccepted)
}

func TestGatewayAnonymousBroadcastIncludesSender(t *testing.T) {
	g := newTestGateway(GatewayConfig{})
	a := openSession(g, nil)

	sendEvent(t, a, EventSendMessage, map[string]string{"text": "hi"})

	env := expectEvent(t, a.Client(), EventReceiveMessage)
	if string(env.Data) != `{"text":"hi"}` {
		t.Errorf("unexpected message payload: %s", env.Data)
	}
}

func TestGatewayRequiresRegistration(t *testing.T) {
	g := newTestGateway(GatewayConfig{})
	anon := openSession(g, nil)

	for _, event := range []string{EventSendInvite, EventAcceptInvite, EventDeclineInvite} {
		sendEvent(t, anon, event, map[string]any{"from": "u1", "to": "u2"})
		expectError(t, anon.Client(), CodeUnauthenticated)
	}

	if anon.State() != StateConnected {
		t.Errorf("expected connection to stay open and anonymous, got %s", anon.State())
	}
	if anon.Client().IsClosed() {
		t.Error("unauthenticated actions must not close the connection")
	}
}

func TestGatewayInvalidEvents(t *testing.T) {
	g := newTestGateway(GatewayConfig{})
	s := openSession(g, nil)
	other := openSession(g, nil)
	sendEvent(t, other, EventRegister, "u9")

	s.Handle([]byte("not json"))
	expectError(t, s.Client(), CodeInvalidEvent)

	sendEvent(t, s, "teleport", nil)
	expectError(t, s.Client(), CodeInvalidEvent)

	sendEvent(t, s, EventRegister, nil)
	expectError(t, s.Client(), CodeInvalidEvent)

	sendEvent(t, s, EventRegister, map[string]string{"username": "nobody"})
	expectError(t, s.Client(), CodeInvalidEvent)

	sendEvent(t, s, EventSendMessage, nil)
	expectError(t, s.Client(), CodeInvalidEvent)

	sendEvent(t, s, EventRegister, "u1")
	sendEvent(t, s, EventSendInvite, map[string]any{"from": map[string]string{"id": "u1", "username": "Alice"}})
	expectError(t, s.Client(), CodeInvalidEvent)

	// Errors go to the originating connection only.
	expectNoEvent(t, other.Client())
}

func TestGatewayReRegistrationUpdatesMapping(t *testing.T) {
	g := newTestGateway(GatewayConfig{})
	s := openSession(g, nil)

	sendEvent(t, s, EventRegister, map[string]string{"userId": "u1", "username": "Alice"})
	sendEvent(t, s, EventRegister, "u2")

	if s.UserID() != "u2" {
		t.Errorf("expected current user u2, got %s", s.UserID())
	}
	if got, ok := g.registry.Lookup("u2"); !ok || got != s.Client() {
		t.Error("expected u2 to map to the connection")
	}

	s.Close()
	for _, id := range []string{"u1", "u2"} {
		if _, ok := g.registry.Lookup(id); ok {
			t.Errorf("expected %s to be absent after close", id)
		}
	}
}

func TestGatewayOpenWithVerifiedIdentity(t *testing.T) {
	g := newTestGateway(GatewayConfig{})
	a := openSession(g, &model.Identity{UserID: "u1", Username: "Alice"})
	b := openSession(g, nil)
	sendEvent(t, b, EventRegister, "u2")

	if a.State() != StateRegistered {
		t.Fatalf("expected registered session, got %s", a.State())
	}

	// The username from the verified identity is used when the payload omits it.
	sendEvent(t, a, EventSendInvite, map[string]any{"to": "u2"})
	env := expectEvent(t, b.Client(), EventReceiveInvite)
	if string(env.Data) != `{"from":{"id":"u1","username":"Alice"}}` {
		t.Errorf("unexpected invite payload: %s", env.Data)
	}
}

func TestGatewayCloseIsIdempotent(t *testing.T) {
	g := newTestGateway(GatewayConfig{})
	s := openSession(g, nil)
	sendEvent(t, s, EventRegister, "u1")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()

	if s.State() != StateClosed {
		t.Errorf("expected closed state, got %s", s.State())
	}
	if g.registry.Len() != 0 || g.channel.Len() != 0 {
		t.Errorf("expected cleanup, registry=%d channel=%d", g.registry.Len(), g.channel.Len())
	}

	// Events after close are ignored, including re-registration.
	sendEvent(t, s, EventRegister, "u1")
	if _, ok := g.registry.Lookup("u1"); ok {
		t.Error("closed session must not register")
	}
}

func TestGatewayCloseDoesNotEvictReplacement(t *testing.T) {
	g := newTestGateway(GatewayConfig{})
	oldSession := openSession(g, nil)
	newSession := openSession(g, nil)
	sendEvent(t, oldSession, EventRegister, "u1")
	sendEvent(t, newSession, EventRegister, "u1")

	oldSession.Close()

	if got, ok := g.registry.Lookup("u1"); !ok || got != newSession.Client() {
		t.Error("closing a stale connection removed the live registration")
	}
}

func TestGatewayRateLimit(t *testing.T) {
	g := newTestGateway(GatewayConfig{EventsPerSecond: 0.001, EventBurst: 2})
	s := openSession(g, nil)

	sendEvent(t, s, EventPing, nil)
	sendEvent(t, s, EventPing, nil)
	sendEvent(t, s, EventPing, nil)

	expectEvent(t, s.Client(), EventPong)
	expectEvent(t, s.Client(), EventPong)
	expectError(t, s.Client(), CodeRateLimited)
}

func TestGatewayDecline(t *testing.T) {
	g := newTestGateway(GatewayConfig{})
	a := openSession(g, &model.Identity{UserID: "u1", Username: "Alice"})
	b := openSession(g, &model.Identity{UserID: "u2", Username: "Bob"})

	sendEvent(t, b, EventDeclineInvite, map[string]any{"from": "u1"})
	env := expectEvent(t, a.Client(), EventInviteDeclined)
	if string(env.Data) != `{"by":{"id":"u2","username":"Bob"}}` {
		t.Errorf("unexpected decline payload: %s", env.Data)
	}
}

func TestGatewayAcceptHookRunsBeforeNotification(t *testing.T) {
	var calls []string
	var inviterQueued int
	var a *Session

	g := newTestGateway(GatewayConfig{
		OnAccept: func(ctx context.Context, inviterID, inviteeID string) error {
			calls = append(calls, inviterID+"->"+inviteeID)
			inviterQueued = len(a.Client().SendChan())
			return errors.New("storage down")
		},
	})
	a = openSession(g, &model.Identity{UserID: "u1", Username: "Alice"})
	b := openSession(g, &model.Identity{UserID: "u2", Username: "Bob"})

	sendEvent(t, b, EventAcceptInvite, map[string]any{"from": "u1"})

	if len(calls) != 1 || calls[0] != "u1->u2" {
		t.Fatalf("unexpected hook calls: %v", calls)
	}
	if inviterQueued != 0 {
		t.Error("inviter was notified before the hook ran")
	}
	// A hook failure does not block the notification.
	expectEvent(t, a.Client(), EventInviteAccepted)
	expectNoEvent(t, b.Client())
}

type fakeParticipants map[string][]string

func (f fakeParticipants) Participants(_ context.Context, chatID string) ([]string, error) {
	p, ok := f[chatID]
	if !ok {
		return nil, model.ErrChatNotFound
	}
	return p, nil
}

func TestGatewayRoomScopedBroadcast(t *testing.T) {
	g := newTestGateway(GatewayConfig{
		RoomScoped:   true,
		Participants: fakeParticipants{"c1": {"u1", "u2"}},
	})
	a := openSession(g, &model.Identity{UserID: "u1"})
	b := openSession(g, &model.Identity{UserID: "u2"})
	c := openSession(g, &model.Identity{UserID: "u3"})

	sendEvent(t, a, EventSendMessage, map[string]string{"chatId": "c1", "text": "hi"})
	expectEvent(t, a.Client(), EventReceiveMessage)
	expectEvent(t, b.Client(), EventReceiveMessage)
	expectNoEvent(t, c.Client())

	// Without a chatId the baseline global broadcast applies.
	sendEvent(t, a, EventSendMessage, map[string]string{"text": "all"})
	for _, s := range []*Session{a, b, c} {
		expectEvent(t, s.Client(), EventReceiveMessage)
	}

	sendEvent(t, a, EventSendMessage, map[string]string{"chatId": "missing"})
	expectError(t, a.Client(), CodeInvalidEvent)

	// Only members of the chat may post to it.
	sendEvent(t, c, EventSendMessage, map[string]string{"chatId": "c1", "text": "intruder"})
	expectError(t, c.Client(), CodeInvalidEvent)
	expectNoEvent(t, a.Client())
	expectNoEvent(t, b.Client())

	anon := openSession(g, nil)
	sendEvent(t, anon, EventSendMessage, map[string]string{"chatId": "c1", "text": "anon"})
	expectError(t, anon.Client(), CodeInvalidEvent)
	expectNoEvent(t, a.Client())
	expectNoEvent(t, b.Client())
}

func TestRegisterPayloadForms(t *testing.T) {
	var p registerPayload
	if err := json.Unmarshal([]byte(`"u1"`), &p); err != nil || p.UserID != "u1" {
		t.Errorf("bare string: %+v %v", p, err)
	}

	p = registerPayload{}
	if err := json.Unmarshal([]byte(`{"userId":"u2","username":"Bob"}`), &p); err != nil || p.UserID != "u2" || p.Username != "Bob" {
		t.Errorf("object: %+v %v", p, err)
	}

	if err := json.Unmarshal([]byte(`42`), &p); err == nil {
		t.Error("expected error for numeric payload")
	}
}
