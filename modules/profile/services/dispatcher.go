package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/events"
	"github.com/aisha-ai/aisha-crm/pkg/outbox"
)

// RefreshDispatcher consumes profile refresh requests from the outbox relay
// and executes them tenant-scoped. Unknown topics fail the message so it
// surfaces in the dead set instead of silently draining.
type RefreshDispatcher struct {
	service *ProfileService
	log     *logrus.Logger
}

func NewRefreshDispatcher(service *ProfileService, log *logrus.Logger) *RefreshDispatcher {
	return &RefreshDispatcher{service: service, log: log}
}

func (d *RefreshDispatcher) Dispatch(ctx context.Context, msg outbox.DispatchedMessage) error {
	if msg.Meta.Topic != events.TopicProfileRefreshV1 {
		return fmt.Errorf("profile dispatcher: unknown topic %q", msg.Meta.Topic)
	}

	var ev events.ProfileRefreshEventV1
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("profile dispatcher: decode payload: %w", err)
	}
	if ev.PersonID == uuid.Nil {
		return fmt.Errorf("profile dispatcher: event %s has no person_id", msg.Meta.EventID)
	}

	tenantCtx := d.service.tenantContext(msg.Meta.TenantID)
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		tenantCtx, cancel = context.WithDeadline(tenantCtx, deadline)
		defer cancel()
	}

	result, err := d.service.Refresh(tenantCtx, ev.PersonID)
	if err != nil {
		return err
	}

	d.log.WithFields(logrus.Fields{
		"person_id": ev.PersonID,
		"tenant_id": msg.Meta.TenantID,
		"reason":    ev.Reason,
		"result":    result,
	}).Debug("profile: refresh dispatched")
	return nil
}
