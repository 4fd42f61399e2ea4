package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/consultdesk/consultdesk-backend/internal/ledger"
	"github.com/consultdesk/consultdesk-backend/internal/payments"
	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	"github.com/consultdesk/consultdesk-backend/pkg/enums"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
	"github.com/consultdesk/consultdesk-backend/pkg/outbox"
	"github.com/consultdesk/consultdesk-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams configure the payout tracker.
type ServiceParams struct {
	Logger *logger.Logger
	DB     txRunner
	Repo   payments.Repository
	Ledger ledger.Service
	Outbox outboxEmitter
}

// Service tracks the manual consultant payout. No funds move through this
// system; admins record initiation, completion and failure after performing
// the transfer out of band. Failure permits re-initiation.
type Service struct {
	logg   *logger.Logger
	db     txRunner
	repo   payments.Repository
	ledger ledger.Service
	outbox outboxEmitter
	now    func() time.Time
}

// NewService validates dependencies and builds the payout tracker.
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
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	return &Service{
		logg:   params.Logger,
		db:     params.DB,
		repo:   params.Repo,
		ledger: params.Ledger,
		outbox: params.Outbox,
		now:    time.Now,
	}, nil
}

// InitiatePayout marks the released funds as being paid out. Allowed from the
// released state and again after a recorded failure.
func (s *Service) InitiatePayout(ctx context.Context, paymentID uuid.UUID, notes, actor string) (*models.Payment, error) {
	return s.transition(ctx, paymentID, enums.PaymentStatusPayoutInitiated, enums.LedgerPayoutInitiated, enums.EventPayoutInitiated, notes, actor)
}

// CompletePayout records that the consultant received the funds.
func (s *Service) CompletePayout(ctx context.Context, paymentID uuid.UUID, notes, actor string) (*models.Payment, error) {
	return s.transition(ctx, paymentID, enums.PaymentStatusPayoutCompleted, enums.LedgerPayoutCompleted, enums.EventPayoutCompleted, notes, actor)
}

// FailPayout records a failed transfer attempt. Notes are required so the
// audit trail explains why the money did not move.
func (s *Service) FailPayout(ctx context.Context, paymentID uuid.UUID, notes, actor string) (*models.Payment, error) {
	if notes == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "failure notes are required")
	}
	return s.transition(ctx, paymentID, enums.PaymentStatusPayoutFailed, enums.LedgerPayoutFailed, enums.EventPayoutFailed, notes, actor)
}

func (s *Service) transition(ctx context.Context, paymentID uuid.UUID, target enums.PaymentStatus, ledgerType enums.LedgerEventType, eventType enums.OutboxEventType, notes, actor string) (*models.Payment, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	var result *models.Payment
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if err := payments.EnsureTransition(payment.Status, target); err != nil {
			return err
		}

		now := s.now().UTC()
		payment.Status = target
		payment.AppendNote(now, "payout "+statusVerb(target))
		if notes != "" {
			payment.AppendNote(now, notes)
		}
		if err := repo.Update(ctx, payment); err != nil {
			return err
		}

		earning := int64(0)
		if payment.ConsultantEarningCents != nil {
			earning = *payment.ConsultantEarningCents
		}
		if _, err := s.ledger.Record(ctx, tx, ledger.RecordEventInput{
			PaymentID:   payment.ID,
			OrderID:     payment.OrderID,
			Type:        ledgerType,
			AmountCents: earning,
			Actor:       actor,
		}); err != nil {
			return err
		}

		s.emitEvent(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.PayoutStatusEvent{
				PaymentID:              payment.ID,
				OrderID:                payment.OrderID,
				Status:                 target,
				ConsultantEarningCents: earning,
				OccurredAt:             now,
				Reason:                 notes,
			},
		})

		logCtx := s.logg.WithPaymentID(ctx, payment.ID.String())
		logCtx = s.logg.WithField(logCtx, "status", target.String())
		s.logg.Info(logCtx, "payout transition recorded")

		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) emitEvent(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) {
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		logCtx := s.logg.WithField(ctx, "event_type", string(event.EventType))
		s.logg.Error(logCtx, "outbox emit failed", err)
	}
}

func statusVerb(status enums.PaymentStatus) string {
	switch status {
	case enums.PaymentStatusPayoutInitiated:
		return "initiated"
	case enums.PaymentStatusPayoutCompleted:
		return "completed"
	case enums.PaymentStatusPayoutFailed:
		return "failed"
	default:
		return status.String()
	}
}
