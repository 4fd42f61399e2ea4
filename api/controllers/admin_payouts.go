package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/consultdesk/consultdesk-backend/api/middleware"
	"github.com/consultdesk/consultdesk-backend/api/responses"
	"github.com/consultdesk/consultdesk-backend/api/validators"
	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
)

type payoutService interface {
	InitiatePayout(ctx context.Context, paymentID uuid.UUID, notes, actor string) (*models.Payment, error)
	CompletePayout(ctx context.Context, paymentID uuid.UUID, notes, actor string) (*models.Payment, error)
	FailPayout(ctx context.Context, paymentID uuid.UUID, notes, actor string) (*models.Payment, error)
}

type payoutNotesRequest struct {
	Notes string `json:"notes"`
}

// AdminInitiatePayout marks the consultant transfer as started.
func AdminInitiatePayout(svc payoutService, logg *logger.Logger) http.HandlerFunc {
	return payoutTransition(svc, logg, func(ctx context.Context, id uuid.UUID, notes, actor string) (*models.Payment, error) {
		return svc.InitiatePayout(ctx, id, notes, actor)
	})
}

// AdminCompletePayout records a settled consultant transfer.
func AdminCompletePayout(svc payoutService, logg *logger.Logger) http.HandlerFunc {
	return payoutTransition(svc, logg, func(ctx context.Context, id uuid.UUID, notes, actor string) (*models.Payment, error) {
		return svc.CompletePayout(ctx, id, notes, actor)
	})
}

// AdminFailPayout records a failed transfer so it can be retried.
func AdminFailPayout(svc payoutService, logg *logger.Logger) http.HandlerFunc {
	return payoutTransition(svc, logg, func(ctx context.Context, id uuid.UUID, notes, actor string) (*models.Payment, error) {
		return svc.FailPayout(ctx, id, notes, actor)
	})
}

func payoutTransition(svc payoutService, logg *logger.Logger, apply func(context.Context, uuid.UUID, string, string) (*models.Payment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		paymentID, err := parsePaymentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body payoutNotesRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := apply(r.Context(), paymentID, body.Notes, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}
