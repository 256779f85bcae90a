package schema_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisha-ai/aisha-crm/pkg/itf"
)

// The policies must hold even for queries that apply no tenant filter at
// all, so everything here runs under a dedicated role that cannot bypass
// row level security the way the migration-owning superuser can.
func TestRowLevelSecurity_UnfilteredQueries(t *testing.T) {
	d := itf.NewDatabase(t)
	ctx := context.Background()
	tenantA := d.CreateTenant(t, "Acme", "acme")
	tenantB := d.CreateTenant(t, "Globex", "globex")

	_, err := d.Pool.Exec(ctx, `
		INSERT INTO leads (tenant_id, first_name, last_name)
		VALUES ($1, 'Jane', 'Doe'), ($1, 'John', 'Roe'), ($2, 'Max', 'Power')
	`, tenantA, tenantB)
	require.NoError(t, err)

	_, err = d.Pool.Exec(ctx, `
		INSERT INTO workflow_templates (tenant_id, name, is_system)
		VALUES (NULL, 'lead-nurture', TRUE), ($1, 'follow-up', FALSE)
	`, tenantA)
	require.NoError(t, err)

	// Roles are cluster-wide: create once, reuse across runs. Grants live in
	// the throwaway database and vanish with it.
	_, err = d.Pool.Exec(ctx, `
		DO $$ BEGIN
			CREATE ROLE aisha_app NOLOGIN NOSUPERUSER NOBYPASSRLS;
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$
	`)
	require.NoError(t, err)
	_, err = d.Pool.Exec(ctx, `GRANT USAGE ON SCHEMA public TO aisha_app`)
	require.NoError(t, err)
	_, err = d.Pool.Exec(ctx, `GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO aisha_app`)
	require.NoError(t, err)

	restricted := func(t *testing.T, fn func(tx pgx.Tx)) {
		t.Helper()
		tx, err := d.Pool.Begin(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback(ctx) }()
		_, err = tx.Exec(ctx, `SET LOCAL ROLE aisha_app`)
		require.NoError(t, err)
		fn(tx)
	}

	countRows := func(t *testing.T, tx pgx.Tx, table string) int64 {
		t.Helper()
		var n int64
		require.NoError(t, tx.QueryRow(ctx, `SELECT count(*) FROM `+table).Scan(&n))
		return n
	}

	t.Run("TenantClaimSeesOwnRowsOnly", func(t *testing.T) {
		restricted(t, func(tx pgx.Tx) {
			_, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true)`, tenantA.String())
			require.NoError(t, err)
			assert.Equal(t, int64(2), countRows(t, tx, "leads"))
			assert.Equal(t, int64(2), countRows(t, tx, "workflow_templates"))
		})
		restricted(t, func(tx pgx.Tx) {
			_, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true)`, tenantB.String())
			require.NoError(t, err)
			assert.Equal(t, int64(1), countRows(t, tx, "leads"))
			assert.Equal(t, int64(1), countRows(t, tx, "workflow_templates"))
		})
	})

	t.Run("MissingClaimDenies", func(t *testing.T) {
		restricted(t, func(tx pgx.Tx) {
			assert.Zero(t, countRows(t, tx, "leads"))
			// system templates are global reference data
			assert.Equal(t, int64(1), countRows(t, tx, "workflow_templates"))
		})
	})

	t.Run("ServiceRoleSeesEverything", func(t *testing.T) {
		restricted(t, func(tx pgx.Tx) {
			_, err := tx.Exec(ctx, `SELECT set_config('app.current_role', 'service', true)`)
			require.NoError(t, err)
			assert.Equal(t, int64(3), countRows(t, tx, "leads"))
			assert.Equal(t, int64(2), countRows(t, tx, "workflow_templates"))
		})
	})

	t.Run("CrossTenantWriteRejected", func(t *testing.T) {
		restricted(t, func(tx pgx.Tx) {
			_, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true)`, tenantA.String())
			require.NoError(t, err)
			_, err = tx.Exec(ctx, `
				INSERT INTO leads (tenant_id, first_name, last_name)
				VALUES ($1, 'Eve', 'Adams')
			`, tenantB)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "row-level security")
		})
	})
}
