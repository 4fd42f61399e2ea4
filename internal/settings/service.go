package settings

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
)

var maxCommissionPercent = decimal.NewFromInt(100)

// UpdateInput carries the editable platform settings fields. Nil pointers
// leave the current value in place.
type UpdateInput struct {
	CommissionPercent   *decimal.Decimal `json:"commission_percent"`
	DefaultCurrency     *string          `json:"default_currency" validate:"omitempty,uppercase,len=3"`
	EscrowHoldingPeriod *time.Duration   `json:"escrow_holding_period"`
	UpdatedBy           string           `json:"-"`
}

// Service reads and edits the platform settings row. The commission value in
// effect at escrow placement is frozen onto the payment; edits here only
// affect future placements.
type Service struct {
	logg *logger.Logger
	repo Repository
}

// NewService builds a settings service.
func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settings repo required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// Current returns the settings row.
func (s *Service) Current(ctx context.Context) (*models.PlatformSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeConfig, "platform settings row is missing")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform settings")
	}
	return settings, nil
}

// Update edits the settings row in place.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*models.PlatformSettings, error) {
	if input.CommissionPercent != nil {
		pct := *input.CommissionPercent
		if pct.IsNegative() || pct.GreaterThan(maxCommissionPercent) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission percent must be between 0 and 100")
		}
	}
	if input.EscrowHoldingPeriod != nil && *input.EscrowHoldingPeriod <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "escrow holding period must be positive")
	}

	settings, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	if input.CommissionPercent != nil {
		settings.CommissionPercent = *input.CommissionPercent
	}
	if input.DefaultCurrency != nil {
		settings.DefaultCurrency = *input.DefaultCurrency
	}
	if input.EscrowHoldingPeriod != nil {
		settings.EscrowHoldingPeriod = *input.EscrowHoldingPeriod
	}
	if input.UpdatedBy != "" {
		settings.UpdatedBy = input.UpdatedBy
	}

	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save platform settings")
	}

	logCtx := s.logg.WithField(ctx, "commission_percent", settings.CommissionPercent.String())
	s.logg.Info(logCtx, "platform settings updated")
	return settings, nil
}
