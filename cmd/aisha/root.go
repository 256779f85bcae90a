package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aisha",
		Short: "AiSHA CRM server and operational tooling",
	}
	cmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newRelayCmd(),
		newRefreshCmd(),
		newTokenCmd(),
	)
	return cmd
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
