package settings

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
)

type stubRepo struct {
	row    *models.PlatformSettings
	getErr error
	saved  *models.PlatformSettings
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Get(ctx context.Context) (*models.PlatformSettings, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.row, nil
}

func (s *stubRepo) GetForUpdate(ctx context.Context) (*models.PlatformSettings, error) {
	return s.Get(ctx)
}

func (s *stubRepo) Save(ctx context.Context, settings *models.PlatformSettings) error {
	s.saved = settings
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})
}

func defaultRow() *models.PlatformSettings {
	return &models.PlatformSettings{
		CommissionPercent:   decimal.RequireFromString("20.00"),
		DefaultCurrency:     "INR",
		EscrowHoldingPeriod: 168 * time.Hour,
	}
}

func TestCurrentMissingRow(t *testing.T) {
	svc, err := NewService(&stubRepo{getErr: gorm.ErrRecordNotFound}, testLogger())
	require.NoError(t, err)

	_, err = svc.Current(context.Background())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConfig, typed.Code())
}

func TestUpdateCommission(t *testing.T) {
	repo := &stubRepo{row: defaultRow()}
	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)

	pct := decimal.RequireFromString("12.50")
	updated, err := svc.Update(context.Background(), UpdateInput{
		CommissionPercent: &pct,
		UpdatedBy:         "admin@consultdesk",
	})
	require.NoError(t, err)
	assert.True(t, updated.CommissionPercent.Equal(pct))
	assert.Equal(t, "admin@consultdesk", updated.UpdatedBy)
	require.NotNil(t, repo.saved)
}

func TestUpdateRejectsOutOfRangeCommission(t *testing.T) {
	svc, err := NewService(&stubRepo{row: defaultRow()}, testLogger())
	require.NoError(t, err)

	for _, raw := range []string{"-1", "100.01"} {
		pct := decimal.RequireFromString(raw)
		_, err := svc.Update(context.Background(), UpdateInput{CommissionPercent: &pct})
		require.Error(t, err, raw)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}

func TestUpdateRejectsNonPositiveHoldingPeriod(t *testing.T) {
	svc, err := NewService(&stubRepo{row: defaultRow()}, testLogger())
	require.NoError(t, err)

	period := time.Duration(0)
	_, err = svc.Update(context.Background(), UpdateInput{EscrowHoldingPeriod: &period})
	assert.Error(t, err)
}
