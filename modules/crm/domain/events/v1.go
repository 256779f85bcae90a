// Package events defines the versioned payloads that cross the outbox
// boundary. Consumers must tolerate unknown fields within a version.
package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicProfileRefreshV1 = "profile.refresh.v1"
	EventVersionV1        = 1
)

// ProfileRefreshEventV1 requests a full profile recompute for one person.
// EventID is the idempotency key: the outbox deduplicates on it, and the
// refresh itself is idempotent so redelivery is harmless.
type ProfileRefreshEventV1 struct {
	EventID      uuid.UUID `json:"event_id"`
	EventVersion int       `json:"event_version"`
	TenantID     uuid.UUID `json:"tenant_id"`
	PersonID     uuid.UUID `json:"person_id"`
	Kind         string    `json:"kind"`
	Reason       string    `json:"reason"`
	OccurredAt   time.Time `json:"occurred_at"`
}
