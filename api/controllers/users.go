package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oxbryte/openly-backend/api/middleware"
	"github.com/oxbryte/openly-backend/api/responses"
	"github.com/oxbryte/openly-backend/api/validators"
	usersvc "github.com/oxbryte/openly-backend/internal/users"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/logger"
)

type signupRequest struct {
	Username      string  `json:"username" validate:"required"`
	Pin           string  `json:"pin" validate:"required"`
	WalletAddress string  `json:"walletAddress" validate:"required"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
}

type assignUniqueNameRequest struct {
	Name string `json:"name" validate:"required"`
}

// Signup provisions a merchant account.
func Signup(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var payload signupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Signup(r.Context(), usersvc.SignupInput{
			Username:      payload.Username,
			Pin:           payload.Pin,
			WalletAddress: payload.WalletAddress,
			Email:         payload.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"id":            created.ID,
			"username":      created.Username,
			"walletAddress": created.WalletAddress,
		})
	}
}

// CheckUniqueName reports handle availability.
func CheckUniqueName(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		result, err := svc.CheckUniqueName(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AssignUniqueName claims a storefront handle for the caller.
func AssignUniqueName(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, ok := middleware.UserUUIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload assignUniqueNameRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.AssignUniqueName(r.Context(), userID, payload.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
