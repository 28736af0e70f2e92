package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/pkg/db"
	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/enums"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/money"
	"github.com/oxbryte/openly-backend/pkg/pagination"
)

// Service exposes seller product management and public product reads.
type Service interface {
	CreateProduct(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Description *string
	PriceUSD    decimal.Decimal
	ImageURL    *string
	Category    *string
}

// UpdateProductInput holds optional mutation values for a product. The slug
// is immutable once published.
type UpdateProductInput struct {
	Name        *string
	Description *string
	PriceUSD    *decimal.Decimal
	IsActive    *bool
	ImageURL    *string
	Category    *string
}

// ListProductsInput selects either a seller's catalog or the product behind a
// payment link slug.
type ListProductsInput struct {
	SellerID    *uuid.UUID
	PaymentLink *string
	ActiveOnly  bool
	Pagination  pagination.Params
}

type linkRepository interface {
	InsertTx(tx *gorm.DB, link *models.PaymentLink) error
	SyncProductTx(tx *gorm.DB, product *models.Product) error
	FindActiveBySlug(ctx context.Context, slug string) (*models.PaymentLink, error)
}

// service implements the product service.
type service struct {
	repo     *Repository
	dbClient *db.Client
	linkRepo linkRepository
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client, linkRepo linkRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if linkRepo == nil {
		return nil, fmt.Errorf("payment link repository required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		linkRepo: linkRepo,
	}, nil
}

// CreateProduct publishes the product and its payment link behind a unique
// slug. Collisions are resolved by an insert-if-absent probe over numbered
// candidates; each attempt is its own transaction so a losing candidate
// leaves nothing behind.
func (s *service) CreateProduct(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if !input.PriceUSD.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}

	priceUSDC := money.USDToUSDC(input.PriceUSD)
	base := Slugify(input.Name)

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := CandidateSlug(base, attempt)

		product := &models.Product{
			ID:          uuid.New(),
			SellerID:    sellerID,
			Name:        input.Name,
			Description: input.Description,
			PriceUSD:    input.PriceUSD,
			PriceUSDC:   priceUSDC,
			Slug:        candidate,
			IsActive:    true,
			ImageURL:    input.ImageURL,
			Category:    input.Category,
		}

		err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			if _, err := txRepo.CreateProduct(ctx, product); err != nil {
				return err
			}
			link := &models.PaymentLink{
				ID:        uuid.New(),
				Slug:      candidate,
				LinkType:  enums.LinkTypeProduct,
				ProductID: &product.ID,
				SellerID:  sellerID,
				AmountUSD: input.PriceUSD,
				Currency:  enums.CurrencyUSD,
				Status:    enums.LinkStatusActive,
			}
			return s.linkRepo.InsertTx(tx, link)
		})
		if err == nil {
			return NewProductDTO(product), nil
		}
		if db.IsUniqueViolation(err, "slug") {
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}

	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique slug")
}

// UpdateProduct mutates an owned product and keeps its payment link in sync.
func (s *service) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if product.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another seller")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.PriceUSD != nil {
		if !input.PriceUSD.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
		}
		product.PriceUSD = *input.PriceUSD
		product.PriceUSDC = money.USDToUSDC(*input.PriceUSD)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.Category != nil {
		product.Category = input.Category
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.UpdateProduct(ctx, product); err != nil {
			return err
		}
		return s.linkRepo.SyncProductTx(tx, product)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}

	return NewProductDTO(product), nil
}

// GetBySlug returns the active product published behind the slug.
func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindActiveBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product by slug")
	}
	return NewProductDTO(product), nil
}

// ListProducts resolves the listing selector: a payment link slug yields the
// single product behind it, a seller id pages the catalog.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if input.PaymentLink != nil && strings.TrimSpace(*input.PaymentLink) != "" {
		link, err := s.linkRepo.FindActiveBySlug(ctx, *input.PaymentLink)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment link not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load payment link")
		}
		if link.ProductID == nil {
			return &ProductListResult{
				Products: []ProductDTO{},
				Page:     pagination.BuildPage(input.Pagination, 0),
			}, nil
		}
		productRow, err := s.repo.FindByID(ctx, *link.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}
		return &ProductListResult{
			Products: []ProductDTO{*NewProductDTO(productRow)},
			Page:     pagination.BuildPage(input.Pagination, 1),
		}, nil
	}

	if input.SellerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sellerId or paymentLink is required")
	}

	rows, total, err := s.repo.ListBySeller(ctx, *input.SellerID, input.ActiveOnly, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return &ProductListResult{
		Products: NewProductDTOs(rows),
		Page:     pagination.BuildPage(input.Pagination, total),
	}, nil
}
