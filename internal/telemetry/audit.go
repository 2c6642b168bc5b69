package telemetry

import (
	"context"
	"log"
	"time"
)

// Audit event types published by the client.
const (
	AuditLogin        = "client_login"
	AuditLogout       = "client_logout"
	AuditWSConnect    = "ws_connect"
	AuditWSDisconnect = "ws_disconnect"
	AuditWSError      = "ws_error"
)

// AuditEmitter publishes client lifecycle events. A nil emitter or
// publisher drops silently.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	clientID    string
	environment string
}

// AuditEnvelope is the published audit record.
type AuditEnvelope struct {
	SchemaVersion int     `json:"schema_version"`
	EventType     string  `json:"event_type"`
	OccurredAt    string  `json:"occurred_at"`
	ClientID      string  `json:"client_id"`
	Environment   string  `json:"environment"`
	UserID        *string `json:"user_id,omitempty"`
	Detail        string  `json:"detail,omitempty"`
}

// NewAuditEmitter builds an emitter. clientID distinguishes concurrent
// daemon instances in the audit stream.
func NewAuditEmitter(publisher Publisher, routingKey, clientID, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		clientID:    clientID,
		environment: environment,
	}
}

// Emit publishes one lifecycle event.
func (e *AuditEmitter) Emit(ctx context.Context, eventType, detail string, userID *string) {
	if e == nil || e.publisher == nil {
		return
	}

	log.Printf("audit emit: event=%s user_id=%v detail=%q", eventType, userID, detail)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		ClientID:      e.clientID,
		Environment:   e.environment,
		UserID:        userID,
		Detail:        detail,
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}
