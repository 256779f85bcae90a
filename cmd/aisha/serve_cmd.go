package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aisha-ai/aisha-crm/internal/server"
	profileservices "github.com/aisha-ai/aisha-crm/modules/profile/services"
	"github.com/aisha-ai/aisha-crm/pkg/configuration"
	"github.com/aisha-ai/aisha-crm/pkg/eventbus"
	"github.com/aisha-ai/aisha-crm/pkg/outbox"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server with the outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			defer conf.Unload()
			logger := conf.Logger()

			pool, err := connectPool(cmd.Context(), conf)
			if err != nil {
				return err
			}
			defer pool.Close()

			bus := eventbus.NewEventPublisher(logger)

			srv, services, err := server.Default(&server.DefaultOptions{
				Logger:        logger,
				Configuration: conf,
				Pool:          pool,
				EventBus:      bus,
			})
			if err != nil {
				return err
			}

			relayCtx, stopRelay := context.WithCancel(context.Background())
			defer stopRelay()
			if conf.Outbox.RelayEnabled {
				startRelay(relayCtx, conf, pool, services.Profiles, logger)
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(conf.SocketAddress) }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.WithField("signal", sig.String()).Info("shutting down")
			}

			stopRelay()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func connectPool(ctx context.Context, conf *configuration.Configuration) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return pgxpool.New(connectCtx, conf.Database.Opts)
}

func startRelay(
	ctx context.Context,
	conf *configuration.Configuration,
	pool *pgxpool.Pool,
	profiles *profileservices.ProfileService,
	logger *logrus.Logger,
) {
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
		logger.WithError(err).Warn("outbox: failed to create relay")
		return
	}
	go func() {
		if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("outbox: relay stopped")
		}
	}()
}
