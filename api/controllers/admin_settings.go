package controllers

import (
	"context"
	"net/http"

	"github.com/consultdesk/consultdesk-backend/api/middleware"
	"github.com/consultdesk/consultdesk-backend/api/responses"
	"github.com/consultdesk/consultdesk-backend/api/validators"
	internalsettings "github.com/consultdesk/consultdesk-backend/internal/settings"
	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
)

type settingsService interface {
	Current(ctx context.Context) (*models.PlatformSettings, error)
	Update(ctx context.Context, input internalsettings.UpdateInput) (*models.PlatformSettings, error)
}

// AdminGetSettings returns the platform settings currently in effect.
func AdminGetSettings(svc settingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		settings, err := svc.Current(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

// AdminUpdateSettings edits the platform settings. Payments already in escrow
// keep the split frozen at placement time.
func AdminUpdateSettings(svc settingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		var input internalsettings.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.UpdatedBy = middleware.UserIDFromContext(r.Context())

		settings, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}
