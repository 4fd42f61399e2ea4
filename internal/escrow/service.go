package escrow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/consultdesk/consultdesk-backend/internal/ledger"
	"github.com/consultdesk/consultdesk-backend/internal/payments"
	"github.com/consultdesk/consultdesk-backend/internal/tickets"
	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	"github.com/consultdesk/consultdesk-backend/pkg/enums"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
	"github.com/consultdesk/consultdesk-backend/pkg/outbox"
	"github.com/consultdesk/consultdesk-backend/pkg/outbox/payloads"
)

var oneHundred = decimal.NewFromInt(100)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type settingsReader interface {
	Current(ctx context.Context) (*models.PlatformSettings, error)
}

// ServiceParams configure the escrow state machine.
type ServiceParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repo        payments.Repository
	Settings    settingsReader
	Completions tickets.CompletionChecker
	Ledger      ledger.Service
	Outbox      outboxEmitter
}

// Service drives payments through the escrow hold: placement with a frozen
// commission split, conditional auto-release, and admin release/cancel.
// Every mutation runs under a row lock so concurrent calls serialize.
type Service struct {
	logg        *logger.Logger
	db          txRunner
	repo        payments.Repository
	settings    settingsReader
	completions tickets.CompletionChecker
	ledger      ledger.Service
	outbox      outboxEmitter
	now         func() time.Time
}

// NewService validates dependencies and builds the escrow service.
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
	if params.Settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settings service required")
	}
	if params.Completions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "completion checker required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	return &Service{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repo,
		settings:    params.Settings,
		completions: params.Completions,
		ledger:      params.Ledger,
		outbox:      params.Outbox,
		now:         time.Now,
	}, nil
}

// PlaceInEscrow moves a captured payment into the hold. The commission
// percentage in effect right now is frozen onto the row together with the
// computed split; later settings edits do not touch this payment.
func (s *Service) PlaceInEscrow(ctx context.Context, paymentID uuid.UUID, condition enums.EscrowReleaseCondition, notes, actor string) (*models.Payment, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	if !condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid release condition")
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	pct := settings.CommissionPercent
	if pct.IsNegative() || pct.GreaterThan(oneHundred) {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "commission percent out of range")
	}

	var result *models.Payment
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := s.lockPayment(ctx, repo, paymentID)
		if err != nil {
			return err
		}
		if err := payments.EnsureTransition(payment.Status, enums.PaymentStatusInEscrow); err != nil {
			return err
		}

		commission, earning := splitAmount(payment.AmountCents, pct)
		now := s.now().UTC()

		payment.Status = enums.PaymentStatusInEscrow
		payment.ReleaseCondition = &condition
		payment.CommissionPercent = &pct
		payment.AdminCommissionCents = &commission
		payment.ConsultantEarningCents = &earning
		if payment.EscrowPlacedAt == nil {
			payment.EscrowPlacedAt = &now
		}
		payment.AppendNote(now, "escrow placed ("+condition.String()+")")
		if notes != "" {
			payment.AppendNote(now, notes)
		}
		if err := repo.Update(ctx, payment); err != nil {
			return err
		}

		metadata, _ := json.Marshal(map[string]any{
			"commission_percent":       pct.String(),
			"admin_commission_cents":   commission,
			"consultant_earning_cents": earning,
			"release_condition":        condition.String(),
		})
		if _, err := s.ledger.Record(ctx, tx, ledger.RecordEventInput{
			PaymentID:   payment.ID,
			OrderID:     payment.OrderID,
			Type:        enums.LedgerEscrowPlaced,
			AmountCents: payment.AmountCents,
			Actor:       actor,
			Metadata:    metadata,
		}); err != nil {
			return err
		}

		s.emitEvent(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEscrowPlaced,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.EscrowPlacedEvent{
				PaymentID:              payment.ID,
				OrderID:                payment.OrderID,
				AmountCents:            payment.AmountCents,
				CommissionPercent:      pct.String(),
				AdminCommissionCents:   commission,
				ConsultantEarningCents: earning,
				ReleaseCondition:       condition,
				PlacedAt:               now,
			},
		})

		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CheckAndAutoRelease evaluates the release condition for a held payment and
// releases when it is met. The check itself never errors on a no-op; it
// reports whether release happened.
func (s *Service) CheckAndAutoRelease(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	if paymentID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	released := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := s.lockPayment(ctx, repo, paymentID)
		if err != nil {
			return err
		}

		switch payment.Status {
		case enums.PaymentStatusEscrowReady:
			// Already marked ready; finish the release.
		case enums.PaymentStatusInEscrow:
			due, err := s.conditionMet(ctx, payment)
			if err != nil {
				return err
			}
			if !due {
				return nil
			}
		default:
			return nil
		}

		if err := s.releaseTx(ctx, tx, repo, payment, "", "auto", "system"); err != nil {
			return err
		}
		released = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return released, nil
}

// MarkReadyForRelease reacts to the ticket workflow's completion signal: a
// held payment with the service_completed condition advances to the
// committed-to-release state. Other conditions and states are no-ops.
func (s *Service) MarkReadyForRelease(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	marked := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.FindActiveByOrderID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment == nil {
			return nil
		}
		payment, err = s.lockPayment(ctx, repo, payment.ID)
		if err != nil {
			return err
		}
		if payment.Status != enums.PaymentStatusInEscrow {
			return nil
		}
		if payment.ReleaseCondition == nil || *payment.ReleaseCondition != enums.ReleaseOnServiceCompleted {
			return nil
		}

		now := s.now().UTC()
		payment.Status = enums.PaymentStatusEscrowReady
		payment.AppendNote(now, "service completion signal received")
		if err := repo.Update(ctx, payment); err != nil {
			return err
		}
		if _, err := s.ledger.Record(ctx, tx, ledger.RecordEventInput{
			PaymentID:   payment.ID,
			OrderID:     payment.OrderID,
			Type:        enums.LedgerEscrowReady,
			AmountCents: payment.AmountCents,
		}); err != nil {
			return err
		}
		marked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return marked, nil
}

// ReleaseFromEscrow performs an admin release from the hold or from the
// ready state.
func (s *Service) ReleaseFromEscrow(ctx context.Context, paymentID uuid.UUID, notes, actor string) (*models.Payment, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	var result *models.Payment
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := s.lockPayment(ctx, repo, paymentID)
		if err != nil {
			return err
		}
		if err := payments.EnsureTransition(payment.Status, enums.PaymentStatusEscrowReleased); err != nil {
			return err
		}
		if err := s.releaseTx(ctx, tx, repo, payment, notes, "manual", actor); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelEscrow cancels a held payment. Once the row reaches the ready state
// the funds are committed to release and cancellation is refused.
func (s *Service) CancelEscrow(ctx context.Context, paymentID uuid.UUID, notes, actor string) (*models.Payment, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	var result *models.Payment
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := s.lockPayment(ctx, repo, paymentID)
		if err != nil {
			return err
		}
		if err := payments.EnsureTransition(payment.Status, enums.PaymentStatusCancelled); err != nil {
			return err
		}

		now := s.now().UTC()
		payment.Status = enums.PaymentStatusCancelled
		payment.AppendNote(now, "escrow cancelled")
		if notes != "" {
			payment.AppendNote(now, notes)
		}
		if err := repo.Update(ctx, payment); err != nil {
			return err
		}

		if _, err := s.ledger.Record(ctx, tx, ledger.RecordEventInput{
			PaymentID:   payment.ID,
			OrderID:     payment.OrderID,
			Type:        enums.LedgerEscrowCancelled,
			AmountCents: payment.AmountCents,
			Actor:       actor,
		}); err != nil {
			return err
		}

		s.emitEvent(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEscrowCancelled,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.EscrowCancelledEvent{
				PaymentID:   payment.ID,
				OrderID:     payment.OrderID,
				AmountCents: payment.AmountCents,
				CancelledAt: now,
				Reason:      notes,
			},
		})

		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) conditionMet(ctx context.Context, payment *models.Payment) (bool, error) {
	if payment.ReleaseCondition == nil {
		return false, nil
	}
	switch *payment.ReleaseCondition {
	case enums.ReleaseOnServiceCompleted:
		return s.completions.IsCompleted(ctx, payment.OrderID)
	case enums.ReleaseOnTimeElapsed:
		if payment.EscrowPlacedAt == nil {
			return false, nil
		}
		settings, err := s.settings.Current(ctx)
		if err != nil {
			return false, err
		}
		return !s.now().UTC().Before(payment.EscrowPlacedAt.Add(settings.EscrowHoldingPeriod)), nil
	default:
		return false, nil
	}
}

func (s *Service) releaseTx(ctx context.Context, tx *gorm.DB, repo payments.Repository, payment *models.Payment, notes, trigger, actor string) error {
	now := s.now().UTC()
	payment.Status = enums.PaymentStatusEscrowReleased
	if payment.EscrowReleasedAt == nil {
		payment.EscrowReleasedAt = &now
	}
	payment.AppendNote(now, "escrow released ("+trigger+")")
	if notes != "" {
		payment.AppendNote(now, notes)
	}
	if err := repo.Update(ctx, payment); err != nil {
		return err
	}

	if _, err := s.ledger.Record(ctx, tx, ledger.RecordEventInput{
		PaymentID:   payment.ID,
		OrderID:     payment.OrderID,
		Type:        enums.LedgerEscrowReleased,
		AmountCents: payment.AmountCents,
		Actor:       actor,
	}); err != nil {
		return err
	}

	earning := int64(0)
	if payment.ConsultantEarningCents != nil {
		earning = *payment.ConsultantEarningCents
	}
	commission := int64(0)
	if payment.AdminCommissionCents != nil {
		commission = *payment.AdminCommissionCents
	}
	s.emitEvent(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventEscrowReleased,
		AggregateType: enums.AggregatePayment,
		AggregateID:   payment.ID,
		Version:       1,
		OccurredAt:    now,
		Data: payloads.EscrowReleasedEvent{
			PaymentID:              payment.ID,
			OrderID:                payment.OrderID,
			ConsultantEarningCents: earning,
			AdminCommissionCents:   commission,
			ReleasedAt:             now,
			Trigger:                trigger,
		},
	})
	return nil
}

func (s *Service) lockPayment(ctx context.Context, repo payments.Repository, id uuid.UUID) (*models.Payment, error) {
	payment, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *Service) emitEvent(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) {
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		logCtx := s.logg.WithField(ctx, "event_type", string(event.EventType))
		s.logg.Error(logCtx, "outbox emit failed", err)
	}
}

// splitAmount divides an amount into commission and earning so that the two
// always sum back to the amount for any percent in [0,100].
func splitAmount(amountCents int64, pct decimal.Decimal) (commission, earning int64) {
	amount := decimal.NewFromInt(amountCents)
	commission = amount.Mul(pct).Div(oneHundred).Round(0).IntPart()
	earning = amountCents - commission
	return commission, earning
}
