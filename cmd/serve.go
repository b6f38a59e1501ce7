package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/api"
	"github.com/parleyhq/parley/config"
	"github.com/parleyhq/parley/credentials"
	"github.com/parleyhq/parley/pkg/agents"
	"github.com/parleyhq/parley/pkg/db"
	"github.com/parleyhq/parley/pkg/logging"
	"github.com/parleyhq/parley/pkg/meetings"
	"github.com/parleyhq/parley/pkg/observability"
	"github.com/parleyhq/parley/pkg/video"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the provisioning reconciler",
		Long: `Run the HTTP API server together with the provisioning reconciler.

The server connects to PostgreSQL and Redis, exposes the agents and meetings
endpoints, /healthz, /metrics, and /version, and runs the reconciler in the
background to converge meetings whose remote call provisioning was deferred.

Secrets are resolved in this order: config file, environment
(PARLEY_SESSION_SECRET, PARLEY_PROVIDER_SECRET), then the system keyring.

Examples:
  # Run with defaults (config from environment)
  parley serve

  # Run with a config file
  parley serve --config /etc/parley/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := credentials.NewStore().Apply(cfg); err != nil {
				return fmt.Errorf("failed to resolve secrets: %w", err)
			}
			if cfg.Server.SessionSecret == "" {
				return errors.New("no session secret configured: set PARLEY_SESSION_SECRET or run 'parley credentials set session-secret'")
			}

			logger := newLogger(cfg)
			return runServe(cmd.Context(), cfg, logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.ConnectWithRetry(ctx, &cfg.Database, 5, 2*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close(pool)

	if _, err := db.RegisterPoolStatsCollector(pool, "parley", prometheus.DefaultRegisterer); err != nil {
		logger.Warn("failed to register pool stats collector", logging.Err(err))
	}

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

	metrics := observability.DefaultMetrics()
	queue := meetings.NewRedisRetryQueue(redisClient)

	agentRepo := agents.NewRepository(pool, logger)
	agentSvc := agents.NewService(agentRepo, logger)

	meetingRepo := meetings.NewRepository(pool, logger)
	meetingSvc := meetings.NewService(meetingRepo, agentRepo, provider, queue, cfg, metrics, logger)

	reconciler := meetings.NewReconciler(meetingSvc, logger)
	reconcilerDone := make(chan struct{})
	go func() {
		defer close(reconcilerDone)
		if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("reconciler exited", logging.Err(err))
		}
	}()

	server := api.NewServer(cfg, agentSvc, meetingSvc, func(ctx context.Context) error {
		return db.Ping(ctx, pool)
	}, logger)

	err = server.Run(ctx)
	<-reconcilerDone
	return err
}
