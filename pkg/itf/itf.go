// Package itf provides integration test fixtures: a throwaway database per
// test, migrated schema, and tenant-scoped contexts. Tests skip when postgres
// is unreachable, except in CI where the database is mandatory.
package itf

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/configuration"
	"github.com/aisha-ai/aisha-crm/pkg/schema"
)

// Database is a freshly created database owned by one test. Both handles
// point at the same database: Pool for application code, SQL for goose.
type Database struct {
	Name string
	Pool *pgxpool.Pool
	SQL  *sql.DB
}

func IsCI() bool {
	return strings.TrimSpace(os.Getenv("CI")) != "" ||
		strings.EqualFold(strings.TrimSpace(os.Getenv("GITHUB_ACTIONS")), "true")
}

// NewDatabase creates a throwaway database for the calling test and applies
// the full migration set. The database is dropped on cleanup.
func NewDatabase(t *testing.T) *Database {
	t.Helper()
	d := NewEmptyDatabase(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, schema.Up(ctx, d.SQL))
	return d
}

// NewEmptyDatabase creates a throwaway database without running migrations,
// for tests that drive the migration sequence themselves.
func NewEmptyDatabase(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	conf := configuration.Use()
	host := strings.TrimSpace(conf.Database.Host)
	port := strings.TrimSpace(conf.Database.Port)
	user := strings.TrimSpace(conf.Database.User)
	password := conf.Database.Password

	adminDSN := "postgres://" + user + ":" + password + "@" + host + ":" + port + "/postgres?sslmode=disable"
	adminConn, err := pgx.Connect(ctx, adminDSN)
	if err != nil {
		if IsCI() {
			require.NoError(t, err)
		}
		t.Skip("postgres is not reachable; skipping integration test")
	}

	dbName := sanitizeDBName("itf_" + t.Name())
	_, _ = adminConn.Exec(ctx, "DROP DATABASE IF EXISTS "+dbName)
	if _, err := adminConn.Exec(ctx, "CREATE DATABASE "+dbName); err != nil {
		_ = adminConn.Close(ctx)
		if IsCI() {
			require.NoError(t, err)
		}
		t.Skip("failed to create test database; skipping integration test")
	}

	dsn := "postgres://" + user + ":" + password + "@" + host + ":" + port + "/" + dbName + "?sslmode=disable"
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	db, err := schema.Open(dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
		pool.Close()
		_, _ = adminConn.Exec(context.Background(), "DROP DATABASE IF EXISTS "+dbName)
		_ = adminConn.Close(context.Background())
	})

	return &Database{Name: dbName, Pool: pool, SQL: db}
}

// TenantContext returns a context carrying the pool and the given tenant,
// the shape application code expects outside an HTTP request.
func (d *Database) TenantContext(tenantID uuid.UUID) context.Context {
	ctx := composables.WithPool(context.Background(), d.Pool)
	return composables.WithTenantID(ctx, tenantID)
}

// CreateTenant inserts a tenant row directly and returns its id.
func (d *Database) CreateTenant(t *testing.T, name, slug string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := d.Pool.Exec(context.Background(),
		`INSERT INTO tenants (id, name, domain, slug) VALUES ($1, $2, $3, $4)`,
		id, name, slug+".test.local", slug)
	require.NoError(t, err)
	return id
}

// postgres truncates identifiers at 63 bytes
func sanitizeDBName(name string) string {
	s := strings.ToLower(name)
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
	if len(s) > 63 {
		s = s[:63]
	}
	return strings.Trim(s, "_")
}
