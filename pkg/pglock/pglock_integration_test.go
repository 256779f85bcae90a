package pglock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisha-ai/aisha-crm/pkg/itf"
	"github.com/aisha-ai/aisha-crm/pkg/pglock"
)

func TestTryXact(t *testing.T) {
	d := itf.NewDatabase(t)
	ctx := context.Background()
	key := pglock.Key("person_profile:" + t.Name())

	tx1, err := d.Pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx1.Rollback(ctx) }()

	ok, err := pglock.TryXact(ctx, tx1, key)
	require.NoError(t, err)
	require.True(t, ok)

	// held by tx1, so a concurrent transaction backs off
	tx2, err := d.Pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx2.Rollback(ctx) }()

	ok, err = pglock.TryXact(ctx, tx2, key)
	require.NoError(t, err)
	assert.False(t, ok)

	// rollback releases the transaction-scoped lock
	require.NoError(t, tx1.Rollback(ctx))

	ok, err = pglock.TryXact(ctx, tx2, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTrySession(t *testing.T) {
	d := itf.NewDatabase(t)
	ctx := context.Background()
	key := pglock.Key("outbox:" + t.Name())

	conn1, err := d.Pool.Acquire(ctx)
	require.NoError(t, err)
	defer conn1.Release()

	conn2, err := d.Pool.Acquire(ctx)
	require.NoError(t, err)
	defer conn2.Release()

	ok, err := pglock.TrySession(ctx, conn1, key)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = pglock.TrySession(ctx, conn2, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, pglock.ReleaseSession(ctx, conn1, key))

	ok, err = pglock.TrySession(ctx, conn2, key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, pglock.ReleaseSession(ctx, conn2, key))
}
