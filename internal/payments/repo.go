package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	"github.com/consultdesk/consultdesk-backend/pkg/enums"
	"github.com/consultdesk/consultdesk-backend/pkg/pagination"
)

// Repository defines persistence operations for payment rows. Rows are never
// deleted; history is retained for audit.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Payment, error)
	FindByProviderOrderIDForUpdate(ctx context.Context, providerOrderID string) (*models.Payment, error)
	FindActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	ListAutoReleaseCandidates(ctx context.Context, limit int) ([]models.Payment, error)
	ListInEscrowPlacedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*PaymentList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByIDForUpdate locks the row for the calling transaction so the
// read-check-write sequence on status is atomic.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("provider_order_id = ?", providerOrderID).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindByProviderOrderIDForUpdate(ctx context.Context, providerOrderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("provider_order_id = ?", providerOrderID).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindActiveByOrderID returns the non-cancelled, non-failed payment for an
// order, or nil when none exists.
func (r *repository) FindActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Where("status NOT IN ?", []enums.PaymentStatus{enums.PaymentStatusCancelled, enums.PaymentStatusFailed}).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

// ListAutoReleaseCandidates returns held payments the sweep should evaluate:
// everything already marked ready plus non-manual escrows.
func (r *repository) ListAutoReleaseCandidates(ctx context.Context, limit int) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where(
			r.db.Where("status = ?", enums.PaymentStatusEscrowReady).
				Or("status = ? AND release_condition <> ?", enums.PaymentStatusInEscrow, enums.ReleaseManually),
		).
		Order("escrow_placed_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListInEscrowPlacedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.PaymentStatusInEscrow).
		Where("escrow_placed_at <= ?", cutoff).
		Order("escrow_placed_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*PaymentList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Payment{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.OrderID != nil {
		query = query.Where("order_id = ?", *filters.OrderID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Payment
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &PaymentList{Payments: rows}
	if len(rows) > limit {
		list.Payments = rows[:limit]
		last := list.Payments[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	return list, nil
}
