// Package repo holds the minimal database access surface shared by all
// persistence packages. Both pgx.Tx and *pgxpool.Pool satisfy Tx, so
// repositories stay agnostic of whether they run inside a transaction.
package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
