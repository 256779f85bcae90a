// Package schema runs the goose migration set and verifies tenant key
// migration state.
package schema

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/aisha-ai/aisha-crm/migrations"
)

var setupOnce sync.Once

func setup() (err error) {
	setupOnce.Do(func() {
		goose.SetBaseFS(migrations.Embed)
		err = goose.SetDialect("postgres")
	})
	return err
}

// Open returns a database/sql handle over the pgx stdlib driver, which is
// what goose expects.
func Open(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func Up(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func UpTo(ctx context.Context, db *sql.DB, version int64) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.UpToContext(ctx, db, ".", version)
}

func Down(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.DownContext(ctx, db, ".")
}

func Status(ctx context.Context, db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db, ".")
}
