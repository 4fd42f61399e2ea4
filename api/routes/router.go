package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/consultdesk/consultdesk-backend/api/controllers"
	webhookcontrollers "github.com/consultdesk/consultdesk-backend/api/controllers/webhooks"
	"github.com/consultdesk/consultdesk-backend/api/middleware"
	"github.com/consultdesk/consultdesk-backend/internal/escrow"
	"github.com/consultdesk/consultdesk-backend/internal/ledger"
	"github.com/consultdesk/consultdesk-backend/internal/payments"
	"github.com/consultdesk/consultdesk-backend/internal/payouts"
	"github.com/consultdesk/consultdesk-backend/internal/settings"
	"github.com/consultdesk/consultdesk-backend/internal/tickets"
	providerwebhook "github.com/consultdesk/consultdesk-backend/internal/webhooks/provider"
	"github.com/consultdesk/consultdesk-backend/pkg/config"
	"github.com/consultdesk/consultdesk-backend/pkg/db"
	"github.com/consultdesk/consultdesk-backend/pkg/enums"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
	"github.com/consultdesk/consultdesk-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	cache redis.Pinger,
	paymentsService *payments.Service,
	ledgerService ledger.Service,
	escrowService *escrow.Service,
	payoutsService *payouts.Service,
	settingsService *settings.Service,
	ticketsService *tickets.Service,
	webhookService *providerwebhook.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/provider", webhookcontrollers.ProviderWebhook(webhookService, logg))
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/orders", controllers.CreatePaymentOrder(paymentsService, logg))
		r.Post("/verify", controllers.VerifyPayment(paymentsService, logg))
		r.Get("/{paymentId}", controllers.GetPayment(paymentsService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin, enums.RoleFinance))

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.AdminListPayments(paymentsService, logg))
			r.Get("/{paymentId}", controllers.AdminGetPayment(paymentsService, ledgerService, logg))
			r.Post("/{paymentId}/escrow", controllers.AdminPlaceInEscrow(escrowService, logg))
			r.Post("/{paymentId}/escrow/release", controllers.AdminReleaseEscrow(escrowService, logg))
			r.Post("/{paymentId}/escrow/cancel", controllers.AdminCancelEscrow(escrowService, logg))
			r.Post("/{paymentId}/escrow/check-release", controllers.AdminCheckEscrowRelease(escrowService, logg))
			r.Post("/{paymentId}/payouts/initiate", controllers.AdminInitiatePayout(payoutsService, logg))
			r.Post("/{paymentId}/payouts/complete", controllers.AdminCompletePayout(payoutsService, logg))
			r.Post("/{paymentId}/payouts/fail", controllers.AdminFailPayout(payoutsService, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.AdminGetSettings(settingsService, logg))
			r.Put("/", controllers.AdminUpdateSettings(settingsService, logg))
		})

		r.Post("/tickets/{orderId}/complete", controllers.AdminCompleteTicket(ticketsService, escrowService, logg))
	})

	return r
}
