package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/consultdesk/consultdesk-backend/api/middleware"
	"github.com/consultdesk/consultdesk-backend/api/responses"
	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
)

type completionRecorder interface {
	RecordCompletion(ctx context.Context, orderID uuid.UUID, completedBy string) (*models.TicketCompletion, error)
}

type readyMarker interface {
	MarkReadyForRelease(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// AdminCompleteTicket records that all tickets on a support order are
// resolved and nudges any escrow waiting on service completion.
func AdminCompleteTicket(tickets completionRecorder, escrow readyMarker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tickets == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		rawOrderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if rawOrderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}
		orderID, err := uuid.Parse(rawOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		completion, err := tickets.RecordCompletion(r.Context(), orderID, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		marked := false
		if escrow != nil {
			marked, err = escrow.MarkReadyForRelease(r.Context(), orderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, map[string]any{
			"completion":    completion,
			"escrow_marked": marked,
		})
	}
}
