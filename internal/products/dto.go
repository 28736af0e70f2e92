package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/pagination"
)

// ProductDTO represents the product payload returned to clients. PriceUSDC is
// the stored fixed-point string, never recomputed on read.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	SellerID    uuid.UUID `json:"seller_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	PriceUSD    string    `json:"price_usd"`
	PriceUSDC   string    `json:"price_usdc"`
	Slug        string    `json:"slug"`
	IsActive    bool      `json:"is_active"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Category    *string   `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductListResult bundles a page of products with its pagination block.
type ProductListResult struct {
	Products []ProductDTO    `json:"products"`
	Page     pagination.Page `json:"pagination"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:          product.ID,
		SellerID:    product.SellerID,
		Name:        product.Name,
		Description: product.Description,
		PriceUSD:    product.PriceUSD.StringFixed(2),
		PriceUSDC:   product.PriceUSDC,
		Slug:        product.Slug,
		IsActive:    product.IsActive,
		ImageURL:    product.ImageURL,
		Category:    product.Category,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

// NewProductDTOs maps a slice of models into DTOs.
func NewProductDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *NewProductDTO(&products[i]))
	}
	return out
}
