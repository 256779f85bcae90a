package outbox

import (
	"context"
	"fmt"

	"github.com/aisha-ai/aisha-crm/pkg/repo"
)

// Table is the single outbox table used by the profile refresh pipeline.
const Table = "profile_outbox"

type Publisher interface {
	// Enqueue stores msg in the outbox within the caller's transaction.
	// EventID deduplicates: re-enqueueing the same event is a no-op that
	// returns the existing sequence.
	Enqueue(ctx context.Context, tx repo.Tx, msg Message) (sequence int64, err error)
}

type publisher struct {
	m *metrics
}

func NewPublisher() Publisher {
	return &publisher{m: getMetrics()}
}

func (p *publisher) Enqueue(ctx context.Context, tx repo.Tx, msg Message) (int64, error) {
	if msg.TenantID == uuidZero() {
		return 0, fmt.Errorf("%w: tenant_id is required", ErrInvalidConfig)
	}
	if msg.EventID == uuidZero() {
		return 0, fmt.Errorf("%w: event_id is required", ErrInvalidConfig)
	}
	if msg.Topic == "" {
		return 0, fmt.Errorf("%w: topic is required", ErrInvalidConfig)
	}

	const q = `INSERT INTO ` + Table + ` (tenant_id, topic, payload, event_id, available_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (event_id) DO UPDATE SET event_id = EXCLUDED.event_id
		 RETURNING sequence`

	var sequence int64
	if err := tx.QueryRow(ctx, q, msg.TenantID, msg.Topic, msg.Payload, msg.EventID).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("outbox enqueue: %w", err)
	}

	p.m.enqueueTotal.WithLabelValues(msg.Topic).Inc()

	return sequence, nil
}
