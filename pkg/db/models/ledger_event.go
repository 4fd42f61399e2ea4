package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/consultdesk/consultdesk-backend/pkg/enums"
)

// LedgerEvent records an immutable money lifecycle event tied to a payment.
type LedgerEvent struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID   uuid.UUID             `gorm:"column:payment_id;type:uuid;not null;index"`
	OrderID     uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	Type        enums.LedgerEventType `gorm:"column:type;type:ledger_event_type_enum;not null"`
	AmountCents int64                 `gorm:"column:amount_cents;not null"`
	Actor       string                `gorm:"column:actor;not null;default:'system'"`
	Metadata    json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
