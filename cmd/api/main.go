package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/consultdesk/consultdesk-backend/api/routes"
	"github.com/consultdesk/consultdesk-backend/internal/escrow"
	"github.com/consultdesk/consultdesk-backend/internal/ledger"
	"github.com/consultdesk/consultdesk-backend/internal/payments"
	"github.com/consultdesk/consultdesk-backend/internal/payouts"
	"github.com/consultdesk/consultdesk-backend/internal/settings"
	"github.com/consultdesk/consultdesk-backend/internal/tickets"
	providerwebhook "github.com/consultdesk/consultdesk-backend/internal/webhooks/provider"
	"github.com/consultdesk/consultdesk-backend/pkg/config"
	"github.com/consultdesk/consultdesk-backend/pkg/db"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
	"github.com/consultdesk/consultdesk-backend/pkg/metrics"
	"github.com/consultdesk/consultdesk-backend/pkg/migrate"
	"github.com/consultdesk/consultdesk-backend/pkg/outbox"
	"github.com/consultdesk/consultdesk-backend/pkg/outbox/idempotency"
	"github.com/consultdesk/consultdesk-backend/pkg/payprovider"
	"github.com/consultdesk/consultdesk-backend/pkg/redis"
)

const webhookDedupTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	providerClient, err := payprovider.NewClient(context.Background(), cfg.Provider, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create provider client", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
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
	paymentsService, err := payments.NewService(payments.ServiceParams{
		Logger:   logg,
		DB:       dbClient,
		Repo:     paymentsRepo,
		Provider: providerClient,
		Ledger:   ledgerService,
		Outbox:   outboxService,
		Settings: settingsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}
	escrowService, err := escrow.NewService(escrow.ServiceParams{
		Logger:      logg,
		DB:          dbClient,
		Repo:        paymentsRepo,
		Settings:    settingsService,
		Completions: ticketsService,
		Ledger:      ledgerService,
		Outbox:      outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow service", err)
		os.Exit(1)
	}
	payoutsService, err := payouts.NewService(payouts.ServiceParams{
		Logger: logg,
		DB:     dbClient,
		Repo:   paymentsRepo,
		Ledger: ledgerService,
		Outbox: outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payouts service", err)
		os.Exit(1)
	}

	dedup, err := idempotency.NewManager(redisClient, webhookDedupTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook dedup guard", err)
		os.Exit(1)
	}
	webhookService, err := providerwebhook.NewService(providerwebhook.ServiceParams{
		Logger:        logg,
		Payments:      paymentsService,
		Idempotency:   dedup,
		Metrics:       metrics.NewWebhookMetrics(prometheus.DefaultRegisterer),
		WebhookSecret: cfg.Provider.WebhookSecret,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			paymentsService,
			ledgerService,
			escrowService,
			payoutsService,
			settingsService,
			ticketsService,
			webhookService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
