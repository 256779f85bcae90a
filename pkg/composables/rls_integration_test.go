package composables_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisha-ai/aisha-crm/pkg/auth"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/itf"
)

func currentSetting(ctx context.Context, t *testing.T, name string) string {
	t.Helper()
	tx, err := composables.UseTx(ctx)
	require.NoError(t, err)

	var value string
	err = tx.QueryRow(ctx,
		`SELECT coalesce(current_setting($1, true), '')`, name,
	).Scan(&value)
	require.NoError(t, err)
	return value
}

func TestInTenantTx_SetsTenantClaim(t *testing.T) {
	d := itf.NewEmptyDatabase(t)
	tenantID := uuid.New()
	ctx := d.TenantContext(tenantID)

	err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		assert.Equal(t, tenantID.String(), currentSetting(txCtx, t, "app.current_tenant"))
		assert.Empty(t, currentSetting(txCtx, t, "app.current_role"))
		return nil
	})
	require.NoError(t, err)

	// set_config with is_local=true scopes the claim to the transaction.
	var after string
	err = d.Pool.QueryRow(context.Background(),
		`SELECT coalesce(current_setting('app.current_tenant', true), '')`,
	).Scan(&after)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestInTenantTx_SetsRoleClaimForUnrestricted(t *testing.T) {
	d := itf.NewEmptyDatabase(t)
	ctx := composables.WithAccess(
		composables.WithPool(context.Background(), d.Pool),
		auth.Access{Role: auth.RoleService},
	)

	err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		assert.Equal(t, "service", currentSetting(txCtx, t, "app.current_role"))
		assert.Empty(t, currentSetting(txCtx, t, "app.current_tenant"))
		return nil
	})
	require.NoError(t, err)
}

func TestInTenantTx_RequiresTenantOrUnrestricted(t *testing.T) {
	d := itf.NewEmptyDatabase(t)
	ctx := composables.WithPool(context.Background(), d.Pool)

	err := composables.InTenantTx(ctx, func(context.Context) error {
		t.Fatal("transaction body must not run without a tenant claim")
		return nil
	})
	require.ErrorIs(t, err, composables.ErrNoTenantID)
}
