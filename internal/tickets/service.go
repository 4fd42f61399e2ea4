package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
)

// CompletionChecker is the read side consumed by the escrow state machine.
// The core trusts the ticket workflow's signal verbatim.
type CompletionChecker interface {
	IsCompleted(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// Service records service-completion signals raised by the ticket workflow.
type Service struct {
	logg *logger.Logger
	repo Repository
	now  func() time.Time
}

// NewService builds a ticket completion service.
func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tickets repo required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{repo: repo, logg: logg, now: time.Now}, nil
}

// RecordCompletion stores the signal. Raising it twice for the same order is
// a no-op success; the first completion timestamp wins.
func (s *Service) RecordCompletion(ctx context.Context, orderID uuid.UUID, completedBy string) (*models.TicketCompletion, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	completion := &models.TicketCompletion{
		OrderID:     orderID,
		CompletedAt: s.now().UTC(),
		CompletedBy: completedBy,
	}
	if err := s.repo.Create(ctx, completion); err != nil {
		// Unique index on order_id: a duplicate raise means the signal
		// already exists, which is a success.
		if existing, lookupErr := s.repo.FindByOrderID(ctx, orderID); lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ticket completion")
	}

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Info(logCtx, "ticket completion recorded")
	return completion, nil
}

// IsCompleted reports whether the completion signal exists for the order.
func (s *Service) IsCompleted(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	completion, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket completion")
	}
	return completion != nil, nil
}
