package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upTenantUUIDBackfill, downTenantUUIDBackfill)
}

// backfillTables lists every table carrying a legacy tenant_key. The
// workflow_templates join skips system rows, which own no tenant.
var backfillTables = []string{
	"leads",
	"contacts",
	"activities",
	"notes",
	"documents",
	"opportunities",
	"workflow_templates",
	"person_profiles",
}

// Stage 2: resolve each legacy key to its tenant uuid. Rows whose key no
// longer resolves are left with a NULL tenant_id; they are reported here and
// block the drop stage until someone deals with them.
func upTenantUUIDBackfill(ctx context.Context, tx *sql.Tx) error {
	for _, table := range backfillTables {
		res, err := tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE %s t
			   SET tenant_id = tn.id
			  FROM tenants tn
			 WHERE t.tenant_key = tn.slug
			   AND t.tenant_id IS NULL
		`, table))
		if err != nil {
			return fmt.Errorf("backfill %s: %w", table, err)
		}
		resolved, _ := res.RowsAffected()

		var unresolved int64
		err = tx.QueryRowContext(ctx, fmt.Sprintf(`
			SELECT count(*) FROM %s
			 WHERE tenant_id IS NULL AND tenant_key IS NOT NULL
		`, table)).Scan(&unresolved)
		if err != nil {
			return fmt.Errorf("backfill %s count: %w", table, err)
		}

		fmt.Printf("tenant backfill %s: resolved=%d unresolved=%d\n", table, resolved, unresolved)
	}
	return nil
}

func downTenantUUIDBackfill(ctx context.Context, tx *sql.Tx) error {
	for i := len(backfillTables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET tenant_id = NULL`, backfillTables[i]),
		); err != nil {
			return fmt.Errorf("backfill rollback %s: %w", backfillTables[i], err)
		}
	}
	return nil
}
