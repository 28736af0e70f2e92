package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oxbryte/openly-backend/pkg/enums"
)

// PaymentLink is a published payment surface, either backing a product or a
// free-standing amount request.
type PaymentLink struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug           string          `gorm:"column:slug;not null;uniqueIndex"`
	LinkType       enums.LinkType  `gorm:"column:link_type;not null"`
	ProductID      *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	SellerID       uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	AmountUSD      decimal.Decimal `gorm:"column:amount_usd;type:numeric(18,2);not null"`
	Currency       enums.Currency  `gorm:"column:currency;not null;default:'usd'"`
	Status         enums.LinkStatus `gorm:"column:status;not null;default:'active'"`
	StripeIntentID *string         `gorm:"column:stripe_intent_id"`
	ClientSecret   *string         `gorm:"column:client_secret"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
