package payments

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	"github.com/consultdesk/consultdesk-backend/pkg/enums"
	"github.com/consultdesk/consultdesk-backend/pkg/pagination"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ToLower(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	payments := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  provider_order_id TEXT NOT NULL UNIQUE,
  provider_payment_id TEXT,
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'INR',
  status TEXT NOT NULL DEFAULT 'created',
  release_condition TEXT,
  commission_percent TEXT,
  consultant_earning_cents INTEGER,
  admin_commission_cents INTEGER,
  captured_at DATETIME,
  failed_at DATETIME,
  escrow_placed_at DATETIME,
  escrow_released_at DATETIME,
  notes TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(payments).Error)
	return db
}

func insertPayment(t *testing.T, repo Repository, status enums.PaymentStatus, providerOrderID string) *models.Payment {
	t.Helper()

	payment := &models.Payment{
		OrderID:         uuid.New(),
		ProviderOrderID: providerOrderID,
		AmountCents:     10000,
		Currency:        "INR",
		Status:          status,
	}
	require.NoError(t, repo.Create(context.Background(), payment))
	return payment
}

func TestRepositoryCreateAssignsID(t *testing.T) {
	repo := NewRepository(setupPaymentsTestDB(t))

	payment := insertPayment(t, repo, enums.PaymentStatusCreated, "po_create")
	require.NotEqual(t, uuid.Nil, payment.ID)

	found, err := repo.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.ProviderOrderID, found.ProviderOrderID)
	assert.Equal(t, enums.PaymentStatusCreated, found.Status)
}

func TestRepositoryFindByProviderOrderID(t *testing.T) {
	repo := NewRepository(setupPaymentsTestDB(t))

	payment := insertPayment(t, repo, enums.PaymentStatusCreated, "po_lookup")

	found, err := repo.FindByProviderOrderID(context.Background(), "po_lookup")
	require.NoError(t, err)
	assert.Equal(t, payment.ID, found.ID)

	_, err = repo.FindByProviderOrderID(context.Background(), "po_missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindActiveByOrderID(t *testing.T) {
	repo := NewRepository(setupPaymentsTestDB(t))

	failed := insertPayment(t, repo, enums.PaymentStatusFailed, "po_failed")

	found, err := repo.FindActiveByOrderID(context.Background(), failed.OrderID)
	require.NoError(t, err)
	assert.Nil(t, found)

	active := insertPayment(t, repo, enums.PaymentStatusPaid, "po_active")
	found, err = repo.FindActiveByOrderID(context.Background(), active.OrderID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, active.ID, found.ID)
}

func TestRepositoryUpdatePersistsTransition(t *testing.T) {
	repo := NewRepository(setupPaymentsTestDB(t))

	payment := insertPayment(t, repo, enums.PaymentStatusCreated, "po_update")
	now := time.Now().UTC()
	payment.Status = enums.PaymentStatusPaid
	payment.CapturedAt = &now
	providerPaymentID := "pay_1"
	payment.ProviderPaymentID = &providerPaymentID
	require.NoError(t, repo.Update(context.Background(), payment))

	found, err := repo.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, found.Status)
	require.NotNil(t, found.CapturedAt)
	require.NotNil(t, found.ProviderPaymentID)
	assert.Equal(t, "pay_1", *found.ProviderPaymentID)
}

func TestRepositoryListAutoReleaseCandidates(t *testing.T) {
	repo := NewRepository(setupPaymentsTestDB(t))

	timeBased := enums.ReleaseOnTimeElapsed
	manual := enums.ReleaseManually

	held := insertPayment(t, repo, enums.PaymentStatusInEscrow, "po_held")
	placedAt := time.Now().UTC().Add(-2 * time.Hour)
	held.ReleaseCondition = &timeBased
	held.EscrowPlacedAt = &placedAt
	require.NoError(t, repo.Update(context.Background(), held))

	manualHold := insertPayment(t, repo, enums.PaymentStatusInEscrow, "po_manual")
	manualHold.ReleaseCondition = &manual
	manualHold.EscrowPlacedAt = &placedAt
	require.NoError(t, repo.Update(context.Background(), manualHold))

	ready := insertPayment(t, repo, enums.PaymentStatusEscrowReady, "po_ready")
	serviceCompleted := enums.ReleaseOnServiceCompleted
	ready.ReleaseCondition = &serviceCompleted
	ready.EscrowPlacedAt = &placedAt
	require.NoError(t, repo.Update(context.Background(), ready))

	insertPayment(t, repo, enums.PaymentStatusPaid, "po_paid")

	candidates, err := repo.ListAutoReleaseCandidates(context.Background(), 10)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(candidates))
	for _, candidate := range candidates {
		ids = append(ids, candidate.ID)
	}
	assert.Contains(t, ids, held.ID)
	assert.Contains(t, ids, ready.ID)
	assert.NotContains(t, ids, manualHold.ID)
	assert.Len(t, candidates, 2)
}

func TestRepositoryListPaginates(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		payment := &models.Payment{
			ID:              uuid.New(),
			OrderID:         uuid.New(),
			ProviderOrderID: fmt.Sprintf("po_page_%d", i),
			AmountCents:     1000,
			Currency:        "INR",
			Status:          enums.PaymentStatusCreated,
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(payment).Error)
	}

	page, err := repo.List(context.Background(), pagination.Params{Limit: 3}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, page.Payments, 3)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "po_page_4", page.Payments[0].ProviderOrderID)

	rest, err := repo.List(context.Background(), pagination.Params{Limit: 3, Cursor: *page.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, rest.Payments, 2)
	assert.Nil(t, rest.NextCursor)
	assert.Equal(t, "po_page_0", rest.Payments[1].ProviderOrderID)
}

func TestRepositoryListFiltersByStatus(t *testing.T) {
	repo := NewRepository(setupPaymentsTestDB(t))

	insertPayment(t, repo, enums.PaymentStatusCreated, "po_f1")
	paid := insertPayment(t, repo, enums.PaymentStatusPaid, "po_f2")

	status := enums.PaymentStatusPaid
	page, err := repo.List(context.Background(), pagination.Params{Limit: 10}, ListFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, page.Payments, 1)
	assert.Equal(t, paid.ID, page.Payments[0].ID)
}
