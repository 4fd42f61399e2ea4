package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketCompletion is raised by the ticket workflow when a consultant's
// service is confirmed complete. The escrow sweep trusts this signal verbatim
// for the service_completed release condition.
type TicketCompletion struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	CompletedAt time.Time `gorm:"column:completed_at;not null"`
	CompletedBy string    `gorm:"column:completed_by;not null;default:''"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
