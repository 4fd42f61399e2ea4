package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/consultdesk/consultdesk-backend/internal/cron"
	"github.com/consultdesk/consultdesk-backend/internal/escrow"
	"github.com/consultdesk/consultdesk-backend/internal/ledger"
	"github.com/consultdesk/consultdesk-backend/internal/payments"
	"github.com/consultdesk/consultdesk-backend/internal/settings"
	"github.com/consultdesk/consultdesk-backend/internal/tickets"
	"github.com/consultdesk/consultdesk-backend/pkg/config"
	"github.com/consultdesk/consultdesk-backend/pkg/db"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
	"github.com/consultdesk/consultdesk-backend/pkg/metrics"
	"github.com/consultdesk/consultdesk-backend/pkg/migrate"
	"github.com/consultdesk/consultdesk-backend/pkg/outbox"
	"github.com/consultdesk/consultdesk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	paymentsRepo := payments.NewRepository(dbClient.DB())
	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	settingsService, err := settings.NewService(settings.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}
	ticketsService, err := tickets.NewService(tickets.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create tickets service", err)
		os.Exit(1)
	}
	escrowService, err := escrow.NewService(escrow.ServiceParams{
		Logger:      logg,
		DB:          dbClient,
		Repo:        paymentsRepo,
		Settings:    settingsService,
		Completions: ticketsService,
		Ledger:      ledgerService,
		Outbox:      outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow service", err)
		os.Exit(1)
	}

	releaseJob, err := cron.NewEscrowReleaseJob(cron.EscrowReleaseJobParams{
		Logger:     logg,
		Candidates: paymentsRepo,
		Escrow:     escrowService,
		BatchSize:  cfg.Escrow.SweepBatch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow release job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(releaseJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Escrow.SweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "cron-worker",
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("cron-worker:%s", env)
}
