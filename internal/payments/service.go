package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/consultdesk/consultdesk-backend/internal/ledger"
	dbpkg "github.com/consultdesk/consultdesk-backend/pkg/db"
	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	"github.com/consultdesk/consultdesk-backend/pkg/enums"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
	"github.com/consultdesk/consultdesk-backend/pkg/outbox"
	"github.com/consultdesk/consultdesk-backend/pkg/outbox/payloads"
	"github.com/consultdesk/consultdesk-backend/pkg/pagination"
	"github.com/consultdesk/consultdesk-backend/pkg/payprovider"
)

type providerClient interface {
	CreateOrder(ctx context.Context, req payprovider.OrderRequest) (*payprovider.Order, error)
	CheckoutKey() string
	OrderSecret() string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type settingsReader interface {
	Current(ctx context.Context) (*models.PlatformSettings, error)
}

// ServiceParams configure the payments service.
type ServiceParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Repo     Repository
	Provider providerClient
	Ledger   ledger.Service
	Outbox   outboxEmitter
	Settings settingsReader
}

// Service owns the payment lifecycle up to capture: provider order creation,
// client-side confirmation, and the capture/failure transitions the webhook
// processor shares.
type Service struct {
	logg     *logger.Logger
	db       txRunner
	repo     Repository
	provider providerClient
	ledger   ledger.Service
	outbox   outboxEmitter
	settings settingsReader
	now      func() time.Time
}

// NewService validates dependencies and builds a payments service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repo required")
	}
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "provider client required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	if params.Settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settings service required")
	}
	return &Service{
		logg:     params.Logger,
		db:       params.DB,
		repo:     params.Repo,
		provider: params.Provider,
		ledger:   params.Ledger,
		outbox:   params.Outbox,
		settings: params.Settings,
		now:      time.Now,
	}, nil
}

// CreateOrder registers a hosted order with the provider and persists the
// payment row in created state. Provider failure commits nothing locally, so
// the caller may retry safely.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	currency := input.Currency
	if currency == "" {
		settings, err := s.settings.Current(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform settings")
		}
		currency = settings.DefaultCurrency
	}

	existing, err := s.repo.FindActiveByOrderID(ctx, input.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active payment")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an active payment already exists for this order")
	}

	order, err := s.provider.CreateOrder(ctx, payprovider.OrderRequest{
		AmountCents: input.AmountCents,
		Currency:    currency,
		Receipt:     input.OrderID.String(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create provider order")
	}

	payment := &models.Payment{
		OrderID:         input.OrderID,
		ProviderOrderID: order.ID,
		AmountCents:     input.AmountCents,
		Currency:        currency,
		Status:          enums.PaymentStatusCreated,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_payments_active_order") {
				return pkgerrors.New(pkgerrors.CodeConflict, "an active payment already exists for this order")
			}
			return err
		}
		_, err := s.ledger.Record(ctx, tx, ledger.RecordEventInput{
			PaymentID:   payment.ID,
			OrderID:     payment.OrderID,
			Type:        enums.LedgerPaymentCreated,
			AmountCents: payment.AmountCents,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithPaymentID(ctx, payment.ID.String())
	logCtx = s.logg.WithOrderID(logCtx, payment.OrderID.String())
	s.logg.Info(logCtx, "provider order created")

	return &CreateOrderResult{
		PaymentID:       payment.ID,
		ProviderOrderID: order.ID,
		CheckoutKey:     s.provider.CheckoutKey(),
		AmountCents:     payment.AmountCents,
		Currency:        payment.Currency,
	}, nil
}

// VerifyPayment validates a client-side checkout confirmation and promotes
// the payment to paid. Re-verification of an already captured payment is a
// success, not an error; a client may retry after a timeout.
func (s *Service) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*PaymentSummary, error) {
	secret := s.provider.OrderSecret()
	if secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "provider order secret is not configured")
	}
	if !payprovider.VerifyConfirmation(input.ProviderOrderID, input.ProviderPaymentID, input.Signature, secret) {
		logCtx := s.logg.WithField(ctx, "provider_order_id", input.ProviderOrderID)
		s.logg.Warn(logCtx, "payment confirmation signature rejected")
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "payment signature verification failed")
	}

	payment, _, err := s.MarkCaptured(ctx, input.ProviderOrderID, input.ProviderPaymentID)
	if err != nil {
		return nil, err
	}
	summary := NewPaymentSummary(payment)
	return &summary, nil
}

// MarkCaptured applies the capture transition under a row lock. The mutation
// happens only when the current status ranks strictly below paid, which
// makes duplicate and out-of-order deliveries no-ops. Returns the row and
// whether this call changed it.
func (s *Service) MarkCaptured(ctx context.Context, providerOrderID, providerPaymentID string) (*models.Payment, bool, error) {
	var result *models.Payment
	changed := false

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.FindByProviderOrderIDForUpdate(ctx, providerOrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}

		if payment.Status.Rank() >= enums.PaymentStatusPaid.Rank() {
			result = payment
			return nil
		}
		if err := EnsureTransition(payment.Status, enums.PaymentStatusPaid); err != nil {
			return err
		}

		now := s.now().UTC()
		payment.Status = enums.PaymentStatusPaid
		payment.ProviderPaymentID = &providerPaymentID
		if payment.CapturedAt == nil {
			payment.CapturedAt = &now
		}
		if err := repo.Update(ctx, payment); err != nil {
			return err
		}

		if _, err := s.ledger.Record(ctx, tx, ledger.RecordEventInput{
			PaymentID:   payment.ID,
			OrderID:     payment.OrderID,
			Type:        enums.LedgerPaymentCaptured,
			AmountCents: payment.AmountCents,
		}); err != nil {
			return err
		}

		s.emitEvent(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentCaptured,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.PaymentCapturedEvent{
				PaymentID:         payment.ID,
				OrderID:           payment.OrderID,
				ProviderOrderID:   payment.ProviderOrderID,
				ProviderPaymentID: providerPaymentID,
				AmountCents:       payment.AmountCents,
				Currency:          payment.Currency,
				CapturedAt:        now,
			},
		})

		result = payment
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

// MarkFailed applies the provider-reported failure transition. Failed shares
// a rank with paid, so a stale payment.failed arriving after a capture never
// regresses the row.
func (s *Service) MarkFailed(ctx context.Context, providerOrderID, reason string) (*models.Payment, bool, error) {
	var result *models.Payment
	changed := false

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.FindByProviderOrderIDForUpdate(ctx, providerOrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}

		if payment.Status.Rank() >= enums.PaymentStatusFailed.Rank() {
			result = payment
			return nil
		}
		if err := EnsureTransition(payment.Status, enums.PaymentStatusFailed); err != nil {
			return err
		}

		now := s.now().UTC()
		payment.Status = enums.PaymentStatusFailed
		if payment.FailedAt == nil {
			payment.FailedAt = &now
		}
		if reason != "" {
			payment.AppendNote(now, "payment failed: "+reason)
		}
		if err := repo.Update(ctx, payment); err != nil {
			return err
		}

		if _, err := s.ledger.Record(ctx, tx, ledger.RecordEventInput{
			PaymentID:   payment.ID,
			OrderID:     payment.OrderID,
			Type:        enums.LedgerPaymentFailed,
			AmountCents: payment.AmountCents,
		}); err != nil {
			return err
		}

		s.emitEvent(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.PaymentFailedEvent{
				PaymentID:       payment.ID,
				OrderID:         payment.OrderID,
				ProviderOrderID: payment.ProviderOrderID,
				FailedAt:        now,
				Reason:          reason,
			},
		})

		result = payment
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

// GetSummary returns the client-visible view of a payment.
func (s *Service) GetSummary(ctx context.Context, id uuid.UUID) (*PaymentSummary, error) {
	payment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := NewPaymentSummary(payment)
	return &summary, nil
}

// Get loads the full payment row.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

// List pages payment rows for the admin surface.
func (s *Service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*PaymentList, error) {
	return s.repo.List(ctx, params, filters)
}

// emitEvent queues a notification event. Emit failures are logged and
// swallowed; a notification must never roll back a state transition.
func (s *Service) emitEvent(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) {
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		logCtx := s.logg.WithField(ctx, "event_type", string(event.EventType))
		s.logg.Error(logCtx, "outbox emit failed", err)
	}
}
