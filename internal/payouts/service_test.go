package payouts

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/consultdesk/consultdesk-backend/internal/ledger"
	"github.com/consultdesk/consultdesk-backend/internal/payments"
	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	"github.com/consultdesk/consultdesk-backend/pkg/enums"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
	"github.com/consultdesk/consultdesk-backend/pkg/outbox"
	"github.com/consultdesk/consultdesk-backend/pkg/pagination"
)

type stubPaymentsRepo struct {
	rows map[uuid.UUID]*models.Payment
}

func newStubPaymentsRepo(rows ...*models.Payment) *stubPaymentsRepo {
	repo := &stubPaymentsRepo{rows: make(map[uuid.UUID]*models.Payment)}
	for _, row := range rows {
		repo.rows[row.ID] = row
	}
	return repo
}

func (r *stubPaymentsRepo) WithTx(tx *gorm.DB) payments.Repository { return r }

func (r *stubPaymentsRepo) Create(ctx context.Context, payment *models.Payment) error {
	r.rows[payment.ID] = payment
	return nil
}

func (r *stubPaymentsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *stubPaymentsRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *stubPaymentsRepo) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPaymentsRepo) FindByProviderOrderIDForUpdate(ctx context.Context, providerOrderID string) (*models.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPaymentsRepo) FindActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	return nil, nil
}

func (r *stubPaymentsRepo) Update(ctx context.Context, payment *models.Payment) error {
	copied := *payment
	r.rows[payment.ID] = &copied
	return nil
}

func (r *stubPaymentsRepo) ListAutoReleaseCandidates(ctx context.Context, limit int) ([]models.Payment, error) {
	return nil, nil
}

func (r *stubPaymentsRepo) ListInEscrowPlacedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error) {
	return nil, nil
}

func (r *stubPaymentsRepo) List(ctx context.Context, params pagination.Params, filters payments.ListFilters) (*payments.PaymentList, error) {
	return &payments.PaymentList{}, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubLedger struct {
	recorded []ledger.RecordEventInput
}

func (l *stubLedger) Record(ctx context.Context, tx *gorm.DB, input ledger.RecordEventInput) (*models.LedgerEvent, error) {
	l.recorded = append(l.recorded, input)
	return &models.LedgerEvent{ID: uuid.New()}, nil
}

func (l *stubLedger) ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]models.LedgerEvent, error) {
	return nil, nil
}

func (l *stubLedger) HasEvent(ctx context.Context, paymentID uuid.UUID, eventType enums.LedgerEventType) (bool, error) {
	return false, nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (o *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	o.events = append(o.events, event)
	return nil
}

func releasedPayment() *models.Payment {
	earning := int64(8000)
	commission := int64(2000)
	releasedAt := time.Now().UTC()
	return &models.Payment{
		ID:                     uuid.New(),
		OrderID:                uuid.New(),
		Status:                 enums.PaymentStatusEscrowReleased,
		AmountCents:            10000,
		Currency:               "INR",
		ConsultantEarningCents: &earning,
		AdminCommissionCents:   &commission,
		EscrowReleasedAt:       &releasedAt,
	}
}

func newTestService(t *testing.T, repo *stubPaymentsRepo) (*Service, *stubLedger, *stubOutbox) {
	t.Helper()
	ledgerStub := &stubLedger{}
	outboxStub := &stubOutbox{}
	service, err := NewService(ServiceParams{
		Logger: logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard}),
		DB:     stubTxRunner{},
		Repo:   repo,
		Ledger: ledgerStub,
		Outbox: outboxStub,
	})
	require.NoError(t, err)
	return service, ledgerStub, outboxStub
}

func TestInitiatePayout(t *testing.T) {
	payment := releasedPayment()
	repo := newStubPaymentsRepo(payment)
	service, ledgerStub, outboxStub := newTestService(t, repo)

	result, err := service.InitiatePayout(context.Background(), payment.ID, "bank transfer ref 4411", "admin-1")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPayoutInitiated, result.Status)
	require.Contains(t, result.Notes, "bank transfer ref 4411")

	require.Len(t, ledgerStub.recorded, 1)
	require.Equal(t, enums.LedgerPayoutInitiated, ledgerStub.recorded[0].Type)
	require.EqualValues(t, 8000, ledgerStub.recorded[0].AmountCents)

	require.Len(t, outboxStub.events, 1)
	require.Equal(t, enums.EventPayoutInitiated, outboxStub.events[0].EventType)
}

func TestInitiatePayoutRequiresReleasedFunds(t *testing.T) {
	payment := releasedPayment()
	payment.Status = enums.PaymentStatusInEscrow
	repo := newStubPaymentsRepo(payment)
	service, _, _ := newTestService(t, repo)

	_, err := service.InitiatePayout(context.Background(), payment.ID, "", "admin-1")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCompletePayout(t *testing.T) {
	payment := releasedPayment()
	payment.Status = enums.PaymentStatusPayoutInitiated
	repo := newStubPaymentsRepo(payment)
	service, _, outboxStub := newTestService(t, repo)

	result, err := service.CompletePayout(context.Background(), payment.ID, "", "admin-1")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPayoutCompleted, result.Status)
	require.Len(t, outboxStub.events, 1)
	require.Equal(t, enums.EventPayoutCompleted, outboxStub.events[0].EventType)
}

func TestFailPayoutRequiresNotes(t *testing.T) {
	payment := releasedPayment()
	payment.Status = enums.PaymentStatusPayoutInitiated
	repo := newStubPaymentsRepo(payment)
	service, _, _ := newTestService(t, repo)

	_, err := service.FailPayout(context.Background(), payment.ID, "", "admin-1")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestFailedPayoutCanBeRetried(t *testing.T) {
	payment := releasedPayment()
	payment.Status = enums.PaymentStatusPayoutInitiated
	repo := newStubPaymentsRepo(payment)
	service, ledgerStub, _ := newTestService(t, repo)

	_, err := service.FailPayout(context.Background(), payment.ID, "IFSC rejected", "admin-1")
	require.NoError(t, err)

	result, err := service.InitiatePayout(context.Background(), payment.ID, "corrected account", "admin-1")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPayoutInitiated, result.Status)

	result, err = service.CompletePayout(context.Background(), payment.ID, "", "admin-1")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPayoutCompleted, result.Status)

	require.Len(t, ledgerStub.recorded, 3)
	require.Equal(t, enums.LedgerPayoutFailed, ledgerStub.recorded[0].Type)
	require.Equal(t, enums.LedgerPayoutInitiated, ledgerStub.recorded[1].Type)
	require.Equal(t, enums.LedgerPayoutCompleted, ledgerStub.recorded[2].Type)
}

func TestCompletedPayoutIsTerminal(t *testing.T) {
	payment := releasedPayment()
	payment.Status = enums.PaymentStatusPayoutCompleted
	repo := newStubPaymentsRepo(payment)
	service, _, _ := newTestService(t, repo)

	_, err := service.InitiatePayout(context.Background(), payment.ID, "", "admin-1")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestPayoutUnknownPayment(t *testing.T) {
	service, _, _ := newTestService(t, newStubPaymentsRepo())

	_, err := service.InitiatePayout(context.Background(), uuid.New(), "", "admin-1")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
