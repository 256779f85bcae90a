package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/events"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/outbox"
)

// enqueueRefresh stores a profile refresh request in the outbox within the
// caller's transaction. The request rides on the same commit as the domain
// write: either both land or neither does.
func enqueueRefresh(ctx context.Context, pub outbox.Publisher, ref person.Ref, reason string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	ev := events.ProfileRefreshEventV1{
		EventID:      uuid.New(),
		EventVersion: events.EventVersionV1,
		TenantID:     tenantID,
		PersonID:     ref.ID(),
		Kind:         string(ref.Kind()),
		Reason:       reason,
		OccurredAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	_, err = pub.Enqueue(ctx, tx, outbox.Message{
		TenantID: tenantID,
		Topic:    events.TopicProfileRefreshV1,
		EventID:  ev.EventID,
		Payload:  payload,
	})
	return err
}
