package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oxbryte/openly-backend/api/middleware"
	"github.com/oxbryte/openly-backend/api/responses"
	"github.com/oxbryte/openly-backend/api/validators"
	productsvc "github.com/oxbryte/openly-backend/internal/products"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/logger"
	"github.com/oxbryte/openly-backend/pkg/pagination"
)

type createProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
	PriceUSD    string  `json:"priceUsd" validate:"required"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Category    *string `json:"category,omitempty"`
}

type updateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PriceUSD    *string `json:"priceUsd,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// CreateProduct handles seller product creation.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		sellerID, ok := middleware.UserUUIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := parsePriceUSD(payload.PriceUSD)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateProduct(r.Context(), sellerID, productsvc.CreateProductInput{
			Name:        payload.Name,
			Description: payload.Description,
			PriceUSD:    price,
			ImageURL:    payload.ImageURL,
			Category:    payload.Category,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UpdateProduct handles owner-only product mutation, including soft
// deactivation through isActive.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		sellerID, ok := middleware.UserUUIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.UpdateProductInput{
			Name:        payload.Name,
			Description: payload.Description,
			IsActive:    payload.IsActive,
			ImageURL:    payload.ImageURL,
			Category:    payload.Category,
		}
		if payload.PriceUSD != nil {
			price, err := parsePriceUSD(*payload.PriceUSD)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.PriceUSD = &price
		}

		updated, err := svc.UpdateProduct(r.Context(), sellerID, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// GetProductBySlug serves the public storefront read.
func GetProductBySlug(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		found, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, found)
	}
}

// ListProducts serves the public listing, selected by sellerId or by a
// payment link slug.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		input := productsvc.ListProductsInput{ActiveOnly: true}

		if raw := strings.TrimSpace(r.URL.Query().Get("sellerId")); raw != "" {
			sellerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sellerId"))
				return
			}
			input.SellerID = &sellerID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("paymentLink")); raw != "" {
			input.PaymentLink = &raw
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Pagination = params

		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parsePriceUSD(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "priceUsd must be a decimal amount")
	}
	return price, nil
}

// paginationFromQuery reads limit/offset, carrying the raw offset so
// non-aligned windows are served exactly as requested.
func paginationFromQuery(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{RowOffset: offset, Limit: limit}, nil
}
