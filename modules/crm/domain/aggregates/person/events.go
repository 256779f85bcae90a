package person

import "github.com/google/uuid"

// In-process lifecycle events. Published after the owning transaction
// commits; the profile module consumes them for its identity fast path.

type CreatedEvent struct {
	Result Person
}

type UpdatedEvent struct {
	Result Person
}

type DeletedEvent struct {
	TenantID uuid.UUID
	Ref      Ref
}

func NewCreatedEvent(result Person) CreatedEvent {
	return CreatedEvent{Result: result}
}

func NewUpdatedEvent(result Person) UpdatedEvent {
	return UpdatedEvent{Result: result}
}

func NewDeletedEvent(tenantID uuid.UUID, ref Ref) DeletedEvent {
	return DeletedEvent{TenantID: tenantID, Ref: ref}
}
