package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upTenantKeyDrop, downTenantKeyDrop)
}

// Stage 4: destructive. Refuses to run while any row still depends on the
// legacy key. System workflow templates legitimately own no tenant and are
// exempt from the NULL check.
func upTenantKeyDrop(ctx context.Context, tx *sql.Tx) error {
	for _, table := range backfillTables {
		nullPredicate := "tenant_id IS NULL"
		if table == "workflow_templates" {
			nullPredicate = "tenant_id IS NULL AND NOT is_system"
		}

		var pending int64
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, table, nullPredicate),
		).Scan(&pending)
		if err != nil {
			return fmt.Errorf("tenant key drop precondition %s: %w", table, err)
		}
		if pending > 0 {
			return fmt.Errorf(
				"tenant key drop blocked: %s has %d rows without a resolved tenant_id; "+
					"re-run the backfill or repair the rows before dropping tenant_key",
				table, pending,
			)
		}
	}

	for _, table := range backfillTables {
		if table != "workflow_templates" {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN tenant_id SET NOT NULL`, table),
			); err != nil {
				return fmt.Errorf("tenant key drop %s set not null: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`ALTER TABLE %s DROP COLUMN tenant_key`, table),
		); err != nil {
			return fmt.Errorf("tenant key drop %s: %w", table, err)
		}
	}
	return nil
}

// The legacy column cannot be restored with its data; recreate it nullable
// so earlier migrations remain reversible in development databases.
func downTenantKeyDrop(ctx context.Context, tx *sql.Tx) error {
	for i := len(backfillTables) - 1; i >= 0; i-- {
		table := backfillTables[i]
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`ALTER TABLE %s ADD COLUMN tenant_key TEXT`, table),
		); err != nil {
			return fmt.Errorf("tenant key restore %s: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE %s t
			   SET tenant_key = tn.slug
			  FROM tenants tn
			 WHERE t.tenant_id = tn.id
		`, table)); err != nil {
			return fmt.Errorf("tenant key restore backfill %s: %w", table, err)
		}
		if table != "workflow_templates" {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN tenant_id DROP NOT NULL`, table),
			); err != nil {
				return fmt.Errorf("tenant key restore %s drop not null: %w", table, err)
			}
		}
	}
	return nil
}
