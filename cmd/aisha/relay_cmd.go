package main

import (
	"github.com/spf13/cobra"

	profilepersistence "github.com/aisha-ai/aisha-crm/modules/profile/infrastructure/persistence"
	profileservices "github.com/aisha-ai/aisha-crm/modules/profile/services"
	"github.com/aisha-ai/aisha-crm/pkg/configuration"
	"github.com/aisha-ai/aisha-crm/pkg/outbox"
)

func newRelayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Run a standalone outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			dispatcher := profileservices.NewRefreshDispatcher(profiles, logger)

			relay, err := outbox.NewRelay(pool, dispatcher, outbox.RelayOptions{
				PollInterval:    conf.Outbox.RelayPollInterval,
				BatchSize:       conf.Outbox.RelayBatchSize,
				MaxAttempts:     conf.Outbox.RelayMaxAttempts,
				SingleActive:    conf.Outbox.RelaySingleActive,
				DispatchTimeout: conf.Outbox.RelayDispatchTimeout,
				Logger:          logger,
			})
			if err != nil {
				return err
			}
			return relay.Run(cmd.Context())
		},
	}
}
