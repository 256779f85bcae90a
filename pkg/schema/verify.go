package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// tenantTables is every table participating in the tenant key migration.
var tenantTables = []string{
	"leads",
	"contacts",
	"activities",
	"notes",
	"documents",
	"opportunities",
	"workflow_templates",
	"person_profiles",
}

// TableReport is the per-table tenant migration state.
type TableReport struct {
	Table string
	// HasLegacyColumn reports whether tenant_key still exists.
	HasLegacyColumn bool
	// MissingTenant counts rows without a resolved tenant_id. System
	// workflow templates are excluded; they own no tenant.
	MissingTenant int64
	// UnresolvedKeys counts rows whose tenant_key matches no tenant slug.
	// Zero when the legacy column is already dropped.
	UnresolvedKeys int64
}

func (r TableReport) Clean() bool {
	return r.MissingTenant == 0 && r.UnresolvedKeys == 0
}

// Verify inspects every tenant-scoped table and reports rows that would
// block the destructive migration stage.
func Verify(ctx context.Context, db *sql.DB) ([]TableReport, error) {
	reports := make([]TableReport, 0, len(tenantTables))
	for _, table := range tenantTables {
		report := TableReport{Table: table}

		err := db.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_schema = current_schema()
				  AND table_name = $1 AND column_name = 'tenant_key'
			)
		`, table).Scan(&report.HasLegacyColumn)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", table, err)
		}

		nullPredicate := "tenant_id IS NULL"
		if table == "workflow_templates" {
			nullPredicate = "tenant_id IS NULL AND NOT is_system"
		}
		err = db.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, table, nullPredicate),
		).Scan(&report.MissingTenant)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", table, err)
		}

		if report.HasLegacyColumn {
			err = db.QueryRowContext(ctx, fmt.Sprintf(`
				SELECT count(*) FROM %s t
				WHERE t.tenant_key IS NOT NULL
				  AND NOT EXISTS (SELECT 1 FROM tenants tn WHERE tn.slug = t.tenant_key)
			`, table)).Scan(&report.UnresolvedKeys)
			if err != nil {
				return nil, fmt.Errorf("verify %s: %w", table, err)
			}
		}

		reports = append(reports, report)
	}
	return reports, nil
}

// CheckClean runs Verify and fails loudly when any table would block the
// destructive stage.
func CheckClean(ctx context.Context, db *sql.DB) error {
	reports, err := Verify(ctx, db)
	if err != nil {
		return err
	}

	var dirty []string
	for _, r := range reports {
		if !r.Clean() {
			dirty = append(dirty, fmt.Sprintf(
				"%s (missing_tenant=%d unresolved_keys=%d)",
				r.Table, r.MissingTenant, r.UnresolvedKeys,
			))
		}
	}
	if len(dirty) > 0 {
		return fmt.Errorf("tenant migration verification failed: %s", strings.Join(dirty, ", "))
	}
	return nil
}
