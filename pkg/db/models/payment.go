package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/consultdesk/consultdesk-backend/pkg/enums"
)

// Payment is the single source of truth for the money lifecycle of a ticket
// order: provider checkout, capture, escrow hold and consultant payout. Rows
// are never deleted; every timestamp is set exactly once on its transition.
type Payment struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ProviderOrderID   string              `gorm:"column:provider_order_id;not null;uniqueIndex"`
	ProviderPaymentID *string             `gorm:"column:provider_payment_id"`
	AmountCents       int64               `gorm:"column:amount_cents;not null"`
	Currency          string              `gorm:"column:currency;not null;default:'INR'"`
	Status            enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'created'"`

	ReleaseCondition       *enums.EscrowReleaseCondition `gorm:"column:release_condition;type:escrow_release_condition"`
	CommissionPercent      *decimal.Decimal              `gorm:"column:commission_percent;type:numeric(5,2)"`
	ConsultantEarningCents *int64                        `gorm:"column:consultant_earning_cents"`
	AdminCommissionCents   *int64                        `gorm:"column:admin_commission_cents"`

	CapturedAt       *time.Time `gorm:"column:captured_at"`
	FailedAt         *time.Time `gorm:"column:failed_at"`
	EscrowPlacedAt   *time.Time `gorm:"column:escrow_placed_at"`
	EscrowReleasedAt *time.Time `gorm:"column:escrow_released_at"`

	Notes     string    `gorm:"column:notes;type:text;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AppendNote adds a timestamped line to the audit notes without overwriting
// earlier entries.
func (p *Payment) AppendNote(at time.Time, note string) {
	if note == "" {
		return
	}
	entry := at.UTC().Format(time.RFC3339) + " " + note
	if p.Notes == "" {
		p.Notes = entry
		return
	}
	p.Notes = p.Notes + "\n" + entry
}
