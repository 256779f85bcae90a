package composables

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aisha-ai/aisha-crm/pkg/configuration"
)

// ApplyTenantRLS pins the caller's tenant claim to the transaction via
// set_config so row-level policies evaluate a cached GUC instead of
// re-deriving the claim per row. Unrestricted (service/superadmin) callers
// get app.current_role set instead of a tenant.
func ApplyTenantRLS(ctx context.Context, tx pgx.Tx) error {
	if configuration.Use().RLSEnforce != "enforce" {
		return nil
	}

	if access, err := UseAccess(ctx); err == nil && access.Unrestricted() {
		_, err := tx.Exec(ctx, "SELECT set_config('app.current_role', $1, true)", string(access.Role))
		if err != nil {
			return fmt.Errorf("failed to set rls role context: %w", err)
		}
		return nil
	}

	tenantID, err := UseTenantID(ctx)
	if err != nil {
		return fmt.Errorf("rls requires tenant in context: %w", err)
	}
	_, err = tx.Exec(ctx, "SELECT set_config('app.current_tenant', $1, true)", tenantID.String())
	if err != nil {
		return fmt.Errorf("failed to set rls tenant context: %w", err)
	}
	return nil
}
