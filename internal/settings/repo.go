package settings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
)

// Repository persists the single platform settings row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context) (*models.PlatformSettings, error)
	GetForUpdate(ctx context.Context) (*models.PlatformSettings, error)
	Save(ctx context.Context, settings *models.PlatformSettings) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context) (*models.PlatformSettings, error) {
	var settings models.PlatformSettings
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) GetForUpdate(ctx context.Context) (*models.PlatformSettings, error) {
	var settings models.PlatformSettings
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("created_at ASC").
		First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) Save(ctx context.Context, settings *models.PlatformSettings) error {
	if settings.ID == uuid.Nil {
		settings.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Save(settings).Error
}
