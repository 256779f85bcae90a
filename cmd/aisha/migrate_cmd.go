package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aisha-ai/aisha-crm/pkg/configuration"
	"github.com/aisha-ai/aisha-crm/pkg/schema"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, schema.Up)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, schema.Down)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print migration status",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, schema.Status)
			},
		},
		&cobra.Command{
			Use:   "verify",
			Short: "Report tenant key migration state per table",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, func(ctx context.Context, db *sql.DB) error {
					reports, err := schema.Verify(ctx, db)
					if err != nil {
						return err
					}
					clean := true
					for _, r := range reports {
						fmt.Printf(
							"%-20s legacy_column=%-5v missing_tenant=%-6d unresolved_keys=%d\n",
							r.Table, r.HasLegacyColumn, r.MissingTenant, r.UnresolvedKeys,
						)
						if !r.Clean() {
							clean = false
						}
					}
					if !clean {
						return fmt.Errorf("verification found rows blocking the tenant key drop")
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func withDB(cmd *cobra.Command, fn func(context.Context, *sql.DB) error) error {
	conf := configuration.Use()
	defer conf.Unload()

	db, err := schema.Open(conf.Database.Opts)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return fn(cmd.Context(), db)
}
