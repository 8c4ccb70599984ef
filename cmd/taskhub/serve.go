package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/config"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/events"
	"github.com/gosuda/taskhub/internal/metrics"
	"github.com/gosuda/taskhub/internal/notify"
	notifyslack "github.com/gosuda/taskhub/internal/notify/slack"
	"github.com/gosuda/taskhub/internal/policy"
	"github.com/gosuda/taskhub/internal/server"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/store/memory"
	"github.com/gosuda/taskhub/internal/store/postgres"
	redisstore "github.com/gosuda/taskhub/internal/store/redis"
)

func newServeCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load demo data before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, seed bool) error {
	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	broker, closeBroker, err := openBroker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBroker()

	senders := notify.NewRegistry()
	if cfg.Slack.Enabled() {
		senders.Register(notifyslack.NewWithToken(cfg.Slack.BotToken, cfg.Slack.Channel))
		log.Info().Str("channel", cfg.Slack.Channel).Msg("slack notifications enabled")
	}

	svcs := service.New(service.Deps{
		Store:    store,
		Policy:   policy.MustNew(),
		Events:   events.NewPublisher(broker, m),
		Notifier: notify.New(senders),
		Metrics:  m,
	})

	if seed {
		if err := seedDemo(ctx, store, svcs); err != nil {
			return err
		}
	}

	srv := server.New(ctx, cfg, server.Deps{
		Store:    store,
		Auth:     auth.NewService(store, cfg.JWT.Secret, m),
		Services: svcs,
		Broker:   broker,
		Metrics:  m,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (domain.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return memory.New(), func() {}, nil
	}

	if cfg.MigrateOnStart {
		if err := migrateUp(cfg); err != nil {
			return nil, nil, err
		}
	}

	if cfg.Database.MaxConns > math.MaxInt32 {
		return nil, nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func openBroker(ctx context.Context, cfg *config.Config) (events.Broker, func(), error) {
	if !cfg.Redis.Enabled {
		return events.NewLocal(), func() {}, nil
	}
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	return pubsub, func() {
		if err := pubsub.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}, nil
}
