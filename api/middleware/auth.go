package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/api/responses"
	"github.com/oxbryte/openly-backend/pkg/db/models"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/logger"
)

type tokenVerifier interface {
	Verify(token string) (string, error)
}

type userLoader interface {
	FindActiveByClerkID(ctx context.Context, clerkID string) (*models.User, error)
}

// Auth validates a bearer session token, resolves the external subject to a
// local user and seeds the request context. A valid token without a local row
// is a 404: the identity provider fired before provisioning caught up.
func Auth(verifier tokenVerifier, users userLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			clerkID, err := verifier.Verify(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			account, err := users.FindActiveByClerkID(r.Context(), clerkID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "account not provisioned"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account"))
				return
			}

			ctx := WithUserID(r.Context(), account.ID.String())
			ctx = WithClerkID(ctx, clerkID)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":  account.ID.String(),
					"clerk_id": clerkID,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
