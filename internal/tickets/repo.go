package tickets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
)

// Repository persists ticket completion signals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, completion *models.TicketCompletion) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.TicketCompletion, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ticket completion repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, completion *models.TicketCompletion) error {
	if completion.ID == uuid.Nil {
		completion.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(completion).Error
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.TicketCompletion, error) {
	var completion models.TicketCompletion
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&completion).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &completion, nil
}
