package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentlink "github.com/oxbryte/openly-backend/internal/paymentlinks"
	"github.com/oxbryte/openly-backend/pkg/db"
	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/enums"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *paymentlink.Repository, *db.Client) {
	t.Helper()
	conn := setupProductTestDB(t)
	client := db.NewFromConn(conn)
	linkRepo := paymentlink.NewRepository(conn)
	svc, err := NewService(NewRepository(conn), client, linkRepo)
	require.NoError(t, err)
	return svc, linkRepo, client
}

func TestCreateProductPublishesLink(t *testing.T) {
	svc, linkRepo, client := newTestService(t)
	seller := mustCreateTestSeller(t, client.DB())

	dto, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{
		Name:     "Sticker Pack",
		PriceUSD: decimal.RequireFromString("9.99"),
	})
	require.NoError(t, err)
	assert.Equal(t, "sticker-pack", dto.Slug)
	assert.Equal(t, "9.99", dto.PriceUSD)
	assert.Equal(t, "9990000", dto.PriceUSDC)
	assert.True(t, dto.IsActive)

	link, err := linkRepo.FindActiveBySlug(context.Background(), "sticker-pack")
	require.NoError(t, err)
	require.NotNil(t, link.ProductID)
	assert.Equal(t, dto.ID, *link.ProductID)
	assert.Equal(t, enums.LinkTypeProduct, link.LinkType)
	assert.True(t, decimal.RequireFromString("9.99").Equal(link.AmountUSD))
}

func TestCreateProductResolvesSlugCollision(t *testing.T) {
	svc, _, client := newTestService(t)
	seller := mustCreateTestSeller(t, client.DB())

	first, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{
		Name:     "Poster",
		PriceUSD: decimal.RequireFromString("5.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "poster", first.Slug)

	second, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{
		Name:     "Poster",
		PriceUSD: decimal.RequireFromString("6.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "poster-1", second.Slug)
}

func TestCreateProductExhaustedProbeConflicts(t *testing.T) {
	svc, _, client := newTestService(t)
	seller := mustCreateTestSeller(t, client.DB())

	for i := 0; i < maxSlugAttempts; i++ {
		_, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{
			Name:     "Mug",
			PriceUSD: decimal.RequireFromString("3.00"),
		})
		require.NoError(t, err)
	}

	_, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{
		Name:     "Mug",
		PriceUSD: decimal.RequireFromString("3.00"),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestCreateProductRejectsNonPositivePrice(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateProduct(context.Background(), uuid.New(), CreateProductInput{
		Name:     "Freebie",
		PriceUSD: decimal.Zero,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpdateProductOwnerOnly(t *testing.T) {
	svc, _, client := newTestService(t)
	seller := mustCreateTestSeller(t, client.DB())
	stranger := mustCreateTestSeller(t, client.DB())

	dto, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{
		Name:     "Tote Bag",
		PriceUSD: decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("15.00")
	_, err = svc.UpdateProduct(context.Background(), stranger.ID, dto.ID, UpdateProductInput{PriceUSD: &newPrice})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestUpdateProductSyncsLinkAndRederivesUSDC(t *testing.T) {
	svc, linkRepo, client := newTestService(t)
	seller := mustCreateTestSeller(t, client.DB())

	dto, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{
		Name:     "Print",
		PriceUSD: decimal.RequireFromString("20.00"),
	})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("12.50")
	updated, err := svc.UpdateProduct(context.Background(), seller.ID, dto.ID, UpdateProductInput{PriceUSD: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, "12.50", updated.PriceUSD)
	assert.Equal(t, "12500000", updated.PriceUSDC)

	link, err := linkRepo.FindActiveBySlug(context.Background(), dto.Slug)
	require.NoError(t, err)
	assert.True(t, newPrice.Equal(link.AmountUSD))
}

func TestUpdateProductDeactivationHidesSlugAndLink(t *testing.T) {
	svc, _, client := newTestService(t)
	seller := mustCreateTestSeller(t, client.DB())

	dto, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{
		Name:     "Zine",
		PriceUSD: decimal.RequireFromString("4.00"),
	})
	require.NoError(t, err)

	inactive := false
	_, err = svc.UpdateProduct(context.Background(), seller.ID, dto.ID, UpdateProductInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.GetBySlug(context.Background(), dto.Slug)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	var link models.PaymentLink
	require.NoError(t, client.DB().First(&link, "slug = ?", dto.Slug).Error)
	assert.Equal(t, enums.LinkStatusInactive, link.Status)
}

func TestListProductsBySeller(t *testing.T) {
	svc, _, client := newTestService(t)
	seller := mustCreateTestSeller(t, client.DB())

	for _, name := range []string{"One", "Two", "Three"} {
		_, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{
			Name:     name,
			PriceUSD: decimal.RequireFromString("1.00"),
		})
		require.NoError(t, err)
	}

	result, err := svc.ListProducts(context.Background(), ListProductsInput{
		SellerID:   &seller.ID,
		Pagination: pagination.Params{Page: 1, Limit: 2},
	})
	require.NoError(t, err)
	assert.Len(t, result.Products, 2)
	assert.Equal(t, int64(3), result.Page.Total)
	assert.Equal(t, 2, result.Page.TotalPages)
}

func TestListProductsByPaymentLink(t *testing.T) {
	svc, _, client := newTestService(t)
	seller := mustCreateTestSeller(t, client.DB())

	dto, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{
		Name:     "Keychain",
		PriceUSD: decimal.RequireFromString("2.00"),
	})
	require.NoError(t, err)

	slug := dto.Slug
	result, err := svc.ListProducts(context.Background(), ListProductsInput{PaymentLink: &slug})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, dto.ID, result.Products[0].ID)
}

func TestListProductsRequiresSelector(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ListProducts(context.Background(), ListProductsInput{})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
