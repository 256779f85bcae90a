package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	profilepersistence "github.com/aisha-ai/aisha-crm/modules/profile/infrastructure/persistence"
	profileservices "github.com/aisha-ai/aisha-crm/modules/profile/services"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/configuration"
)

func newRefreshCmd() *cobra.Command {
	var tenantFlag string

	cmd := &cobra.Command{
		Use:   "refresh <person-id>",
		Short: "Recompute one person profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			personID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid person id: %w", err)
			}
			tenantID, err := uuid.Parse(tenantFlag)
			if err != nil {
				return fmt.Errorf("invalid --tenant: %w", err)
			}

			conf := configuration.Use()
			defer conf.Unload()
			logger := conf.Logger()

			pool, err := connectPool(cmd.Context(), conf)
			if err != nil {
				return err
			}
			defer pool.Close()

			profiles := profileservices.NewProfileService(
				profilepersistence.NewProfileRepository(conf.Profile.ListLimit),
				pool,
				logger,
			)

			ctx := composables.WithPool(cmd.Context(), pool)
			ctx = composables.WithTenantID(ctx, tenantID)

			result, err := profiles.Refresh(ctx, personID)
			if err != nil {
				return err
			}
			fmt.Printf("refresh %s: %s\n", personID, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantFlag, "tenant", "", "tenant uuid owning the person (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
