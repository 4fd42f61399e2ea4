package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	"github.com/consultdesk/consultdesk-backend/pkg/enums"
)

// Service records immutable audit events alongside payment transitions.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordEventInput) (*models.LedgerEvent, error)
	ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]models.LedgerEvent, error)
	HasEvent(ctx context.Context, paymentID uuid.UUID, eventType enums.LedgerEventType) (bool, error)
}

type service struct {
	repo Repository
}

// RecordEventInput captures the immutable data a ledger event requires.
type RecordEventInput struct {
	PaymentID   uuid.UUID             `json:"payment_id"`
	OrderID     uuid.UUID             `json:"order_id"`
	Type        enums.LedgerEventType `json:"type"`
	AmountCents int64                 `json:"amount_cents"`
	Actor       string                `json:"actor"`
	Metadata    json.RawMessage       `json:"metadata"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// Record writes the event, inside tx when one is supplied so the audit row
// commits with the transition it describes.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordEventInput) (*models.LedgerEvent, error) {
	if input.PaymentID == uuid.Nil {
		return nil, fmt.Errorf("payment id is required")
	}
	if input.OrderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid ledger event type %q", input.Type)
	}
	actor := input.Actor
	if actor == "" {
		actor = "system"
	}

	event := &models.LedgerEvent{
		PaymentID:   input.PaymentID,
		OrderID:     input.OrderID,
		Type:        input.Type,
		AmountCents: input.AmountCents,
		Actor:       actor,
		Metadata:    input.Metadata,
	}

	if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]models.LedgerEvent, error) {
	if paymentID == uuid.Nil {
		return nil, fmt.Errorf("payment id is required")
	}
	return s.repo.ListByPaymentID(ctx, paymentID)
}

func (s *service) HasEvent(ctx context.Context, paymentID uuid.UUID, eventType enums.LedgerEventType) (bool, error) {
	if paymentID == uuid.Nil {
		return false, fmt.Errorf("payment id is required")
	}
	if !eventType.IsValid() {
		return false, fmt.Errorf("invalid ledger event type %q", eventType)
	}

	events, err := s.repo.ListByPaymentID(ctx, paymentID)
	if err != nil {
		return false, err
	}
	for _, event := range events {
		if event.Type == eventType {
			return true, nil
		}
	}
	return false, nil
}
