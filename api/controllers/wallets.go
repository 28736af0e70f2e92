package controllers

import (
	"net/http"

	"github.com/oxbryte/openly-backend/api/middleware"
	"github.com/oxbryte/openly-backend/api/responses"
	"github.com/oxbryte/openly-backend/api/validators"
	walletsvc "github.com/oxbryte/openly-backend/internal/wallets"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/logger"
)

type withdrawRequest struct {
	AmountUSDC  string `json:"amountUsdc" validate:"required"`
	Destination string `json:"destination,omitempty"`
}

// WalletBalance serves the dashboard custodial balance.
func WalletBalance(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, ok := middleware.UserUUIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

// WalletWithdraw submits a custodial withdrawal for the caller.
func WalletWithdraw(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, ok := middleware.UserUUIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload withdrawRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawal, err := svc.Withdraw(r.Context(), userID, walletsvc.WithdrawInput{
			AmountUSDC:  payload.AmountUSDC,
			Destination: payload.Destination,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, withdrawal)
	}
}
