package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisha-ai/aisha-crm/pkg/itf"
	"github.com/aisha-ai/aisha-crm/pkg/outbox"
)

func TestPublisher_Enqueue_Dedup(t *testing.T) {
	d := itf.NewDatabase(t)
	ctx := context.Background()
	tenantID := d.CreateTenant(t, "Acme", "acme")

	pub := outbox.NewPublisher()
	eventID := uuid.New()
	msg := outbox.Message{
		TenantID: tenantID,
		Topic:    "profile.refresh.v1",
		EventID:  eventID,
		Payload:  json.RawMessage(`{"person_id":"x"}`),
	}

	tx, err := d.Pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	first, err := pub.Enqueue(ctx, tx, msg)
	require.NoError(t, err)

	second, err := pub.Enqueue(ctx, tx, msg)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, tx.Commit(ctx))

	var count int
	require.NoError(t, d.Pool.QueryRow(ctx,
		`SELECT count(*) FROM profile_outbox WHERE event_id = $1`, eventID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPublisher_Enqueue_Validation(t *testing.T) {
	d := itf.NewDatabase(t)
	ctx := context.Background()

	pub := outbox.NewPublisher()
	tx, err := d.Pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = pub.Enqueue(ctx, tx, outbox.Message{Topic: "t", EventID: uuid.New()})
	require.ErrorIs(t, err, outbox.ErrInvalidConfig)

	_, err = pub.Enqueue(ctx, tx, outbox.Message{TenantID: uuid.New(), EventID: uuid.New()})
	require.ErrorIs(t, err, outbox.ErrInvalidConfig)

	_, err = pub.Enqueue(ctx, tx, outbox.Message{TenantID: uuid.New(), Topic: "t"})
	require.ErrorIs(t, err, outbox.ErrInvalidConfig)
}

func TestRelay_DispatchesEnqueuedMessage(t *testing.T) {
	d := itf.NewDatabase(t)
	ctx := context.Background()
	tenantID := d.CreateTenant(t, "Acme", "acme")

	pub := outbox.NewPublisher()
	eventID := uuid.New()

	tx, err := d.Pool.Begin(ctx)
	require.NoError(t, err)
	sequence, err := pub.Enqueue(ctx, tx, outbox.Message{
		TenantID: tenantID,
		Topic:    "profile.refresh.v1",
		EventID:  eventID,
		Payload:  json.RawMessage(`{"reason":"test"}`),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	received := make(chan outbox.DispatchedMessage, 1)
	relay, err := outbox.NewRelay(d.Pool, outbox.DispatcherFunc(
		func(ctx context.Context, msg outbox.DispatchedMessage) error {
			received <- msg
			return nil
		},
	), outbox.RelayOptions{
		PollInterval: 25 * time.Millisecond,
		SingleActive: false,
	})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- relay.Run(runCtx) }()

	select {
	case msg := <-received:
		assert.Equal(t, tenantID, msg.Meta.TenantID)
		assert.Equal(t, "profile.refresh.v1", msg.Meta.Topic)
		assert.Equal(t, eventID, msg.Meta.EventID)
		assert.Equal(t, sequence, msg.Meta.Sequence)
		assert.Equal(t, 1, msg.Meta.Attempts)
		assert.JSONEq(t, `{"reason":"test"}`, string(msg.Payload))
	case <-time.After(10 * time.Second):
		t.Fatal("relay did not dispatch the message")
	}

	// acked messages leave the pending set
	require.Eventually(t, func() bool {
		var publishedAt *time.Time
		err := d.Pool.QueryRow(ctx,
			`SELECT published_at FROM profile_outbox WHERE sequence = $1`, sequence,
		).Scan(&publishedAt)
		return err == nil && publishedAt != nil
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestRelay_DeadLettersAfterMaxAttempts(t *testing.T) {
	d := itf.NewDatabase(t)
	ctx := context.Background()
	tenantID := d.CreateTenant(t, "Acme", "acme")

	pub := outbox.NewPublisher()

	tx, err := d.Pool.Begin(ctx)
	require.NoError(t, err)
	sequence, err := pub.Enqueue(ctx, tx, outbox.Message{
		TenantID: tenantID,
		Topic:    "profile.refresh.v1",
		EventID:  uuid.New(),
		Payload:  json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	relay, err := outbox.NewRelay(d.Pool, outbox.DispatcherFunc(
		func(ctx context.Context, msg outbox.DispatchedMessage) error {
			return errors.New("handler rejected the payload")
		},
	), outbox.RelayOptions{
		PollInterval: 25 * time.Millisecond,
		MaxAttempts:  1,
		SingleActive: false,
	})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- relay.Run(runCtx) }()

	require.Eventually(t, func() bool {
		var deadAt *time.Time
		var lastError *string
		err := d.Pool.QueryRow(ctx,
			`SELECT dead_at, last_error FROM profile_outbox WHERE sequence = $1`, sequence,
		).Scan(&deadAt, &lastError)
		return err == nil && deadAt != nil && lastError != nil && *lastError == "handler rejected the payload"
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
