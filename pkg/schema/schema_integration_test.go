package schema_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisha-ai/aisha-crm/pkg/itf"
	"github.com/aisha-ai/aisha-crm/pkg/schema"
)

// Walks the tenant key migration stage by stage: legacy schema, uuid
// backfill, verification, the guarded destructive drop, and the repair path
// that unblocks it.
func TestTenantKeyMigrationSequence(t *testing.T) {
	d := itf.NewEmptyDatabase(t)
	ctx := context.Background()

	// Stage 0: legacy schema only.
	require.NoError(t, schema.UpTo(ctx, d.SQL, 1))

	_, err := d.Pool.Exec(ctx, `
		INSERT INTO tenants (name, slug) VALUES ('Acme', 'acme'), ('Globex', 'globex')
	`)
	require.NoError(t, err)

	// One lead's key no longer resolves to any tenant.
	_, err = d.Pool.Exec(ctx, `
		INSERT INTO leads (tenant_key, first_name, last_name)
		VALUES ('acme', 'Jane', 'Doe'), ('globex', 'John', 'Smith'), ('vanished-co', 'G', 'Host')
	`)
	require.NoError(t, err)

	var leadID string
	require.NoError(t, d.Pool.QueryRow(ctx,
		`SELECT id FROM leads WHERE tenant_key = 'acme'`).Scan(&leadID))
	_, err = d.Pool.Exec(ctx, `
		INSERT INTO activities (tenant_key, person_id, person_kind, activity_type, subject, occurred_at)
		VALUES ('acme', $1, 'lead', 'call', 'intro', now())
	`, leadID)
	require.NoError(t, err)

	_, err = d.Pool.Exec(ctx, `
		INSERT INTO workflow_templates (tenant_key, name, is_system)
		VALUES (NULL, 'lead-nurture', TRUE), ('acme', 'follow-up', FALSE)
	`)
	require.NoError(t, err)

	// Stages 1-2: add tenant_id and backfill it from the legacy keys.
	require.NoError(t, schema.UpTo(ctx, d.SQL, 3))

	reports, err := schema.Verify(ctx, d.SQL)
	require.NoError(t, err)
	byTable := map[string]schema.TableReport{}
	for _, r := range reports {
		byTable[r.Table] = r
	}

	assert.True(t, byTable["leads"].HasLegacyColumn)
	assert.Equal(t, int64(1), byTable["leads"].MissingTenant)
	assert.Equal(t, int64(1), byTable["leads"].UnresolvedKeys)
	assert.True(t, byTable["activities"].Clean())
	// the system template has no tenant and is not a defect
	assert.True(t, byTable["workflow_templates"].Clean())

	require.Error(t, schema.CheckClean(ctx, d.SQL))

	// During the transition window the application writes only the uuid
	// column; the legacy key is optional until the drop stage removes it.
	_, err = d.Pool.Exec(ctx, `
		INSERT INTO leads (tenant_id, first_name, last_name)
		VALUES ((SELECT id FROM tenants WHERE slug = 'acme'), 'Ada', 'New')
	`)
	require.NoError(t, err)

	// Stage 3: non-blocking index build, then row level security.
	require.NoError(t, schema.UpTo(ctx, d.SQL, 4))

	var indexes int
	require.NoError(t, d.Pool.QueryRow(ctx,
		`SELECT count(*) FROM pg_indexes WHERE indexname = 'leads_tenant_id_idx'`).Scan(&indexes))
	assert.Equal(t, 1, indexes)

	require.NoError(t, schema.UpTo(ctx, d.SQL, 5))

	var policies int
	require.NoError(t, d.Pool.QueryRow(ctx,
		`SELECT count(*) FROM pg_policies WHERE tablename = 'leads'`).Scan(&policies))
	assert.Equal(t, 1, policies)

	// Stage 4 refuses to drop the legacy column while a row is unresolved.
	err = schema.Up(ctx, d.SQL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant key drop blocked")

	var hasLegacy bool
	require.NoError(t, d.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'leads' AND column_name = 'tenant_key'
		)
	`).Scan(&hasLegacy))
	assert.True(t, hasLegacy, "failed drop stage must not leave partial schema changes")

	// Repair the orphaned row, then the destructive stage goes through.
	_, err = d.Pool.Exec(ctx, `
		UPDATE leads SET tenant_id = (SELECT id FROM tenants WHERE slug = 'acme')
		WHERE tenant_key = 'vanished-co'
	`)
	require.NoError(t, err)

	require.NoError(t, schema.Up(ctx, d.SQL))
	require.NoError(t, schema.CheckClean(ctx, d.SQL))

	reports, err = schema.Verify(ctx, d.SQL)
	require.NoError(t, err)
	for _, r := range reports {
		assert.False(t, r.HasLegacyColumn, "%s still has tenant_key", r.Table)
	}

	// The relay table arrives with the final stage.
	var outboxExists bool
	require.NoError(t, d.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables WHERE table_name = 'profile_outbox'
		)
	`).Scan(&outboxExists))
	assert.True(t, outboxExists)
}
