// Package pglock maps arbitrary string keys into the postgres advisory lock
// key space.
package pglock

import (
	"context"
	"hash/fnv"

	"github.com/aisha-ai/aisha-crm/pkg/repo"
)

// Key hashes s into the bigint advisory lock key space.
func Key(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

// TryXact attempts a non-blocking, transaction-scoped advisory lock. The lock
// is released automatically on commit or rollback. A false result means the
// key is held elsewhere; callers are expected to treat that as "someone else
// is already doing this work", not as an error.
func TryXact(ctx context.Context, tx repo.Tx, key int64) (bool, error) {
	var ok bool
	if err := tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1::bigint)`, key).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// TrySession attempts a non-blocking session-scoped advisory lock, used for
// single-active workers that hold leadership across transactions.
func TrySession(ctx context.Context, tx repo.Tx, key int64) (bool, error) {
	var ok bool
	if err := tx.QueryRow(ctx, `SELECT pg_try_advisory_lock($1::bigint)`, key).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// ReleaseSession releases a session-scoped advisory lock taken by TrySession.
func ReleaseSession(ctx context.Context, tx repo.Tx, key int64) error {
	var ok bool
	return tx.QueryRow(ctx, `SELECT pg_advisory_unlock($1::bigint)`, key).Scan(&ok)
}
