package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/consultdesk/consultdesk-backend/pkg/enums"
)

// PaymentCapturedEvent signals a provider-confirmed capture.
type PaymentCapturedEvent struct {
	PaymentID         uuid.UUID `json:"payment_id"`
	OrderID           uuid.UUID `json:"order_id"`
	ProviderOrderID   string    `json:"provider_order_id"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	AmountCents       int64     `json:"amount_cents"`
	Currency          string    `json:"currency"`
	CapturedAt        time.Time `json:"captured_at"`
}

// PaymentFailedEvent signals a provider-reported failure.
type PaymentFailedEvent struct {
	PaymentID       uuid.UUID `json:"payment_id"`
	OrderID         uuid.UUID `json:"order_id"`
	ProviderOrderID string    `json:"provider_order_id"`
	FailedAt        time.Time `json:"failed_at"`
	Reason          string    `json:"reason,omitempty"`
}

// EscrowPlacedEvent carries the frozen commission split at placement.
type EscrowPlacedEvent struct {
	PaymentID              uuid.UUID                     `json:"payment_id"`
	OrderID                uuid.UUID                     `json:"order_id"`
	AmountCents            int64                         `json:"amount_cents"`
	CommissionPercent      string                        `json:"commission_percent"`
	AdminCommissionCents   int64                         `json:"admin_commission_cents"`
	ConsultantEarningCents int64                         `json:"consultant_earning_cents"`
	ReleaseCondition       enums.EscrowReleaseCondition  `json:"release_condition"`
	PlacedAt               time.Time                     `json:"placed_at"`
}

// EscrowReleasedEvent is emitted once funds clear the holding state.
type EscrowReleasedEvent struct {
	PaymentID              uuid.UUID `json:"payment_id"`
	OrderID                uuid.UUID `json:"order_id"`
	ConsultantEarningCents int64     `json:"consultant_earning_cents"`
	AdminCommissionCents   int64     `json:"admin_commission_cents"`
	ReleasedAt             time.Time `json:"released_at"`
	Trigger                string    `json:"trigger"`
}

// EscrowCancelledEvent is emitted when an admin cancels held funds.
type EscrowCancelledEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	OrderID     uuid.UUID `json:"order_id"`
	AmountCents int64     `json:"amount_cents"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// PayoutStatusEvent covers payout initiation, completion, and failure.
type PayoutStatusEvent struct {
	PaymentID              uuid.UUID           `json:"payment_id"`
	OrderID                uuid.UUID           `json:"order_id"`
	Status                 enums.PaymentStatus `json:"status"`
	ConsultantEarningCents int64               `json:"consultant_earning_cents"`
	OccurredAt             time.Time           `json:"occurred_at"`
	Reason                 string              `json:"reason,omitempty"`
}
