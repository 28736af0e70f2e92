package paymentlink

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/enums"
)

// Repository wires together payment link persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// InsertTx creates the link inside the caller's transaction.
func (r *Repository) InsertTx(tx *gorm.DB, link *models.PaymentLink) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(link).Error
}

// FindActiveBySlug loads an active link by its public slug.
func (r *Repository) FindActiveBySlug(ctx context.Context, slug string) (*models.PaymentLink, error) {
	var link models.PaymentLink
	if err := r.db.WithContext(ctx).
		First(&link, "slug = ? AND status = ?", slug, enums.LinkStatusActive).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// FindByID loads the link without filters.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentLink, error) {
	var link models.PaymentLink
	if err := r.db.WithContext(ctx).First(&link, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// SyncProductTx mirrors the product's price and active state onto its links.
// The slug never changes once published.
func (r *Repository) SyncProductTx(tx *gorm.DB, product *models.Product) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	status := enums.LinkStatusActive
	if !product.IsActive {
		status = enums.LinkStatusInactive
	}
	return tx.Model(&models.PaymentLink{}).
		Where("product_id = ?", product.ID).
		Updates(map[string]any{
			"amount_usd": product.PriceUSD,
			"status":     status,
		}).Error
}

// SetIntent stores the latest Stripe intent issued for the link.
func (r *Repository) SetIntent(ctx context.Context, linkID uuid.UUID, intentID, clientSecret string) error {
	return r.db.WithContext(ctx).Model(&models.PaymentLink{}).
		Where("id = ?", linkID).
		Updates(map[string]any{
			"stripe_intent_id": intentID,
			"client_secret":    clientSecret,
			"status":           enums.LinkStatusActive,
		}).Error
}
