package ws

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/chat-app/backend/internal/model"
)

// Inbound event names.
const (
	EventRegister      = "register"
	EventSendInvite    = "send_invite"
	EventAcceptInvite  = "accept_invite"
	EventDeclineInvite = "decline_invite"
	EventSendMessage   = "send-message"
	EventPing          = "ping"
)

// Outbound event names.
const (
	EventReceiveInvite  = "receive_invite"
	EventInviteAccepted = "invite_accepted"
	EventInviteDeclined = "invite_declined"
	EventReceiveMessage = "receive_message"
	EventPong           = "pong"
	EventError          = "error"
)

// Error codes sent in error events.
const (
	CodeInvalidEvent    = "INVALID_EVENT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeRateLimited     = "RATE_LIMITED"
)

// Envelope is the frame exchanged over the socket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// UserRef identifies a user in invite payloads.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ErrorPayload is the data of an error event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// registerPayload accepts both a bare user ID string and an object.
type registerPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (p *registerPayload) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		p.UserID = id
		return nil
	}
	type plain registerPayload
	return json.Unmarshal(data, (*plain)(p))
}

type sendInvitePayload struct {
	From UserRef `json:"from"`
	To   string  `json:"to"`
}

type replyInvitePayload struct {
	From string  `json:"from"`
	To   UserRef `json:"to"`
}

type inviteNotice struct {
	From UserRef `json:"from"`
}

type replyNotice struct {
	By UserRef `json:"by"`
}

// decodeData unmarshals an event payload, mapping failures to ErrInvalidEvent.
func decodeData(event string, data json.RawMessage, v any) error {
	if isEmpty(data) {
		return fmt.Errorf("%w: %s requires a payload", model.ErrInvalidEvent, event)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrInvalidEvent, event, err)
	}
	return nil
}

func isEmpty(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// encodeEnvelope marshals an outbound event.
func encodeEnvelope(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
