package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/credentials"
	"github.com/parleyhq/parley/pkg/agents"
	"github.com/parleyhq/parley/pkg/db"
	"github.com/parleyhq/parley/pkg/meetings"
	"github.com/parleyhq/parley/pkg/observability"
	"github.com/parleyhq/parley/pkg/video"
)

func newReconcileCommand() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run the provisioning reconciler",
		Long: `Run the provisioning reconciler standalone.

The reconciler retries remote call provisioning for meetings left pending by a
provider outage, and marks meetings failed once retries are exhausted. 'parley
serve' already runs a reconciler; this command is for dedicated workers or for
one-off convergence after an incident.

Examples:
  # Run continuously on the configured interval
  parley reconcile

  # Perform a single pass and exit
  parley reconcile --once`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := credentials.NewStore().Apply(cfg); err != nil {
				return fmt.Errorf("failed to resolve secrets: %w", err)
			}
			logger := newLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := db.ConnectWithRetry(ctx, &cfg.Database, 5, 2*time.Second)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close(pool)

			redisClient := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer redisClient.Close()

			provider, err := video.NewHTTPClient(&cfg.Provider, logger)
			if err != nil {
				return fmt.Errorf("failed to build provider client: %w", err)
			}
			provider = video.NewRetryClient(provider, video.DefaultRetryPolicy(), logger)

			agentRepo := agents.NewRepository(pool, logger)
			meetingRepo := meetings.NewRepository(pool, logger)
			queue := meetings.NewRedisRetryQueue(redisClient)
			svc := meetings.NewService(meetingRepo, agentRepo, provider, queue, cfg,
				observability.DefaultMetrics(), logger)
			reconciler := meetings.NewReconciler(svc, logger)

			if once {
				return reconciler.RunOnce(ctx)
			}
			if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Perform a single reconcile pass and exit")
	return cmd
}
