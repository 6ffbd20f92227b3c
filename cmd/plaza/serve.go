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
	"golang.org/x/sync/errgroup"

	"github.com/gosuda/plaza/internal/audit"
	"github.com/gosuda/plaza/internal/config"
	"github.com/gosuda/plaza/internal/server"
	"github.com/gosuda/plaza/internal/store/postgres"
	redisstore "github.com/gosuda/plaza/internal/store/redis"
	"github.com/gosuda/plaza/internal/stream"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Database.Migrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics := stream.NewMetrics(reg)
	bridge := stream.NewBridge(cfg.Stream.Delivery, metrics)
	feed := stream.NewFeed(bridge, stream.NewSalt(cfg.Stream.Salt), cfg.Stream.Tick, metrics)

	checks := map[string]server.Pinger{"postgres": store}
	var announcer audit.Announcer = bridge

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Redis.Enabled() {
		pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()

		channel := redisstore.AuditLogChannel(cfg.Redis.Namespace)
		announcer = audit.NewRedisAnnouncer(pubsub, channel)
		checks["redis"] = pubsub

		relay := stream.NewRelay(pubsub, channel, bridge)
		g.Go(func() error { return relay.Run(gctx) })
	}

	log.Info().
		Str("delivery", string(cfg.Stream.Delivery)).
		Dur("tick", cfg.Stream.Tick).
		Bool("redis", cfg.Redis.Enabled()).
		Bool("fixed_salt", cfg.Stream.Salt != "").
		Msg("audit log stream ready")

	srv := server.New(gctx, cfg, server.Deps{
		Audit:    audit.NewService(store.AuditLogs(), announcer),
		Feed:     feed,
		Gatherer: reg,
		Checks:   checks,
	})

	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		return srv.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Msg("stopped")
	return nil
}
