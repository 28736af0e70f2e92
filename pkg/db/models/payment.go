package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oxbryte/openly-backend/pkg/enums"
)

// Payment is one attempted or settled transfer of funds through a payment
// link. StripeIntentID and TxHash are the idempotency keys the webhook
// reconciler matches on; each is unique when present. Status only ever moves
// forward, and CompletedAt is stamped exactly once.
type Payment struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID         *uuid.UUID          `gorm:"column:product_id;type:uuid"`
	PaymentLinkID     uuid.UUID           `gorm:"column:payment_link_id;type:uuid;not null"`
	BuyerID           *uuid.UUID          `gorm:"column:buyer_id;type:uuid"`
	SellerID          uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	AmountUSDC        string              `gorm:"column:amount_usdc;not null"`
	AmountUSD         *decimal.Decimal    `gorm:"column:amount_usd;type:numeric(18,2)"`
	StripeIntentID    *string             `gorm:"column:stripe_intent_id;uniqueIndex"`
	TxHash            *string             `gorm:"column:tx_hash;uniqueIndex"`
	Status            enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	CompletedAt       *time.Time          `gorm:"column:completed_at"`
	PayoutStatus      *enums.PayoutStatus `gorm:"column:payout_status"`
	PayoutRetryCount  int                 `gorm:"column:payout_retry_count;not null;default:0"`
	PayoutRetryReason *string             `gorm:"column:payout_retry_reason"`
	PayoutTxID        *string             `gorm:"column:payout_tx_id"`
	RefundStatus      *enums.RefundStatus `gorm:"column:refund_status"`
	RefundAmountUSDC  *string             `gorm:"column:refund_amount_usdc"`
	RefundReason      *string             `gorm:"column:refund_reason"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
