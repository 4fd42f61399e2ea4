package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/consultdesk/consultdesk-backend/api/responses"
	"github.com/consultdesk/consultdesk-backend/api/validators"
	internalpayments "github.com/consultdesk/consultdesk-backend/internal/payments"
	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	"github.com/consultdesk/consultdesk-backend/pkg/enums"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
	"github.com/consultdesk/consultdesk-backend/pkg/pagination"
)

type paymentAdminReader interface {
	List(ctx context.Context, params pagination.Params, filters internalpayments.ListFilters) (*internalpayments.PaymentList, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Payment, error)
}

type ledgerReader interface {
	ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]models.LedgerEvent, error)
}

// AdminListPayments returns a cursor page of payments, optionally narrowed by
// status or support order.
func AdminListPayments(svc paymentAdminReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		var filters internalpayments.ListFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePaymentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("order_id")); raw != "" {
			orderID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id filter"))
				return
			}
			filters.OrderID = &orderID
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminGetPayment returns the full payment row together with its ledger trail.
func AdminGetPayment(svc paymentAdminReader, events ledgerReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		paymentID, err := parsePaymentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Get(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var trail []models.LedgerEvent
		if events != nil {
			trail, err = events.ListByPaymentID(r.Context(), paymentID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, map[string]any{
			"payment": payment,
			"ledger":  trail,
		})
	}
}
