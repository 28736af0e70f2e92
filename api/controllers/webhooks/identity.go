package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/oxbryte/openly-backend/api/responses"
	user "github.com/oxbryte/openly-backend/internal/users"
	"github.com/oxbryte/openly-backend/pkg/config"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/logger"
)

const identitySignatureHeader = "X-Identity-Signature"

type IdentityWebhookService interface {
	HandleEvent(ctx context.Context, payload []byte) error
}

// IdentityWebhook receives identity-provider lifecycle deliveries. The ack
// policy mirrors the processor webhook: a bad signature is a 400 before any
// mutation, everything past the signature is acknowledged.
func IdentityWebhook(svc IdentityWebhookService, cfg config.IdentityConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		signature := r.Header.Get(identitySignatureHeader)
		if err := user.VerifyIdentitySignature(cfg.WebhookSecret, payload, signature); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.HandleEvent(ctx, payload); err != nil {
			if logg != nil {
				logg.Error(ctx, "identity event handling failed", err)
			}
		}
		acknowledge(w)
	}
}
