package models

import "encoding/json"

// Named realtime events exchanged with the backend.
const (
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
	EventError        = "error"
	EventAuthFailure  = "auth_failure"
	EventChatMessage  = "chat:message"
	EventChatTyping   = "chat:typing"
	EventChatRead     = "chat:read"
	EventNotification = "notification:created"
	EventNotifyRead   = "notification:read"
	EventPostCreated  = "post:created"
	EventPostUpdated  = "post:updated"
	EventPostReserved = "post:reserved"
	EventPostExpired  = "post:expired"
	EventLocation     = "location:update"
)

// Envelope is the wire frame for realtime events.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
