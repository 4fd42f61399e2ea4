package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/consultdesk/consultdesk-backend/api/responses"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
)

// maxWebhookBody caps how much of a webhook payload is read before the
// signature check.
const maxWebhookBody = 1 << 20

const signatureHeader = "X-Provider-Signature"

type ProviderWebhookService interface {
	Process(ctx context.Context, body []byte, signature string) error
}

// ProviderWebhook handles payment lifecycle callbacks from the payment
// provider. Signature validation and replay handling live in the service;
// this handler only moves bytes.
func ProviderWebhook(svc ProviderWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		if err := svc.Process(ctx, payload, r.Header.Get(signatureHeader)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
