package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a seller-owned sellable item published behind a unique slug.
// PriceUSDC is derived 1:1 from PriceUSD at write time and stored as a
// 6-decimal fixed-point integer string; it is never recomputed on read.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	PriceUSD    decimal.Decimal `gorm:"column:price_usd;type:numeric(18,2);not null"`
	PriceUSDC   string          `gorm:"column:price_usdc;not null"`
	Slug        string          `gorm:"column:slug;not null;uniqueIndex"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	ImageURL    *string         `gorm:"column:image_url"`
	Category    *string         `gorm:"column:category"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
