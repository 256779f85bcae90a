// Package outbox is a transactional outbox over a single postgres table.
// Producers enqueue messages in the same transaction as their domain write;
// a single-active relay claims and dispatches them after commit.
package outbox

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Message is the unit stored in the outbox table.
type Message struct {
	TenantID uuid.UUID
	Topic    string
	EventID  uuid.UUID
	Payload  json.RawMessage
}

// Meta is the stable dispatch metadata (idempotency + ops).
type Meta struct {
	TenantID uuid.UUID
	Topic    string
	EventID  uuid.UUID
	Sequence int64
	Attempts int
}

// DispatchedMessage is the unit delivered by Relay to Dispatcher.
type DispatchedMessage struct {
	Meta    Meta
	Payload json.RawMessage
}

// Dispatcher consumes claimed messages. A returned error schedules a retry
// with exponential backoff until MaxAttempts, then the message goes dead.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg DispatchedMessage) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, msg DispatchedMessage) error

func (f DispatcherFunc) Dispatch(ctx context.Context, msg DispatchedMessage) error {
	return f(ctx, msg)
}
