package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aisha-ai/aisha-crm/pkg/auth"
	"github.com/aisha-ai/aisha-crm/pkg/configuration"
)

func newTokenCmd() *cobra.Command {
	var (
		tenantFlag string
		roleFlag   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a tenant credential for development and testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			defer conf.Unload()

			tenantID := uuid.Nil
			if tenantFlag != "" {
				parsed, err := uuid.Parse(tenantFlag)
				if err != nil {
					return fmt.Errorf("invalid --tenant: %w", err)
				}
				tenantID = parsed
			}

			tm := auth.NewTokenManager(conf.Auth.SigningKey, conf.Auth.TokenTTL)
			token, err := tm.Issue(tenantID, auth.Role(roleFlag))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantFlag, "tenant", "", "tenant uuid (required for member tokens)")
	cmd.Flags().StringVar(&roleFlag, "role", string(auth.RoleMember), "credential role: member, service or superadmin")
	return cmd
}
