package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/consultdesk/consultdesk-backend/api/middleware"
	"github.com/consultdesk/consultdesk-backend/api/responses"
	"github.com/consultdesk/consultdesk-backend/api/validators"
	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	"github.com/consultdesk/consultdesk-backend/pkg/enums"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
)

type escrowService interface {
	PlaceInEscrow(ctx context.Context, paymentID uuid.UUID, condition enums.EscrowReleaseCondition, notes, actor string) (*models.Payment, error)
	ReleaseFromEscrow(ctx context.Context, paymentID uuid.UUID, notes, actor string) (*models.Payment, error)
	CancelEscrow(ctx context.Context, paymentID uuid.UUID, notes, actor string) (*models.Payment, error)
	CheckAndAutoRelease(ctx context.Context, paymentID uuid.UUID) (bool, error)
}

type placeEscrowRequest struct {
	ReleaseCondition string `json:"release_condition" validate:"required"`
	Notes            string `json:"notes"`
}

type escrowNotesRequest struct {
	Notes string `json:"notes"`
}

// AdminPlaceInEscrow moves a captured payment into escrow, freezing the
// commission split in effect right now.
func AdminPlaceInEscrow(svc escrowService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		paymentID, err := parsePaymentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body placeEscrowRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		condition, err := enums.ParseEscrowReleaseCondition(body.ReleaseCondition)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid release condition"))
			return
		}

		payment, err := svc.PlaceInEscrow(r.Context(), paymentID, condition, body.Notes, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// AdminReleaseEscrow releases held funds ahead of, or instead of, the
// configured automatic trigger.
func AdminReleaseEscrow(svc escrowService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		paymentID, err := parsePaymentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body escrowNotesRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.ReleaseFromEscrow(r.Context(), paymentID, body.Notes, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// AdminCancelEscrow voids a held payment, typically after a dispute.
func AdminCancelEscrow(svc escrowService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		paymentID, err := parsePaymentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body escrowNotesRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.CancelEscrow(r.Context(), paymentID, body.Notes, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// AdminCheckEscrowRelease evaluates a single payment's release condition on
// demand, the same check the hourly sweep performs.
func AdminCheckEscrowRelease(svc escrowService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		paymentID, err := parsePaymentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		released, err := svc.CheckAndAutoRelease(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"released": released})
	}
}
