package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	"github.com/consultdesk/consultdesk-backend/pkg/enums"
)

// CreateOrderInput is the request body for starting a provider checkout.
type CreateOrderInput struct {
	OrderID     uuid.UUID `json:"order_id" validate:"required"`
	AmountCents int64     `json:"amount_cents" validate:"required,gt=0"`
	Currency    string    `json:"currency" validate:"omitempty,uppercase,len=3"`
}

// CreateOrderResult carries everything the client needs to open the hosted
// checkout.
type CreateOrderResult struct {
	PaymentID       uuid.UUID `json:"payment_id"`
	ProviderOrderID string    `json:"provider_order_id"`
	CheckoutKey     string    `json:"checkout_key"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
}

// VerifyPaymentInput is the client-side confirmation after checkout.
type VerifyPaymentInput struct {
	ProviderOrderID   string `json:"provider_order_id" validate:"required"`
	ProviderPaymentID string `json:"provider_payment_id" validate:"required"`
	Signature         string `json:"signature" validate:"required"`
}

// PaymentSummary is the client-visible view of a payment row.
type PaymentSummary struct {
	PaymentID   uuid.UUID           `json:"payment_id"`
	OrderID     uuid.UUID           `json:"order_id"`
	Status      enums.PaymentStatus `json:"status"`
	AmountCents int64               `json:"amount_cents"`
	Currency    string              `json:"currency"`
	CapturedAt  *time.Time          `json:"captured_at,omitempty"`
}

// ListFilters narrow the admin payment listing.
type ListFilters struct {
	Status  *enums.PaymentStatus
	OrderID *uuid.UUID
}

// PaymentList is a cursor page of payments.
type PaymentList struct {
	Payments   []models.Payment `json:"payments"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

// NewPaymentSummary maps a payment row to its client view.
func NewPaymentSummary(payment *models.Payment) PaymentSummary {
	return PaymentSummary{
		PaymentID:   payment.ID,
		OrderID:     payment.OrderID,
		Status:      payment.Status,
		AmountCents: payment.AmountCents,
		Currency:    payment.Currency,
		CapturedAt:  payment.CapturedAt,
	}
}
