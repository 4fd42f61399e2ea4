package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlatformSettings is the single editable row that escrow placement reads its
// commission percentage from. The value in effect at placement time is frozen
// onto the payment; later edits only affect future placements.
type PlatformSettings struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CommissionPercent   decimal.Decimal `gorm:"column:commission_percent;type:numeric(5,2);not null"`
	DefaultCurrency     string          `gorm:"column:default_currency;not null;default:'INR'"`
	EscrowHoldingPeriod time.Duration   `gorm:"column:escrow_holding_period_ns;not null"`
	UpdatedBy           string          `gorm:"column:updated_by;not null;default:'system'"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
